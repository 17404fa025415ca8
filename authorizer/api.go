package authorizer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

// API is a HTTP API for the authorizer service
type API struct {
	authorizer *Service
	logger     *slog.Logger
}

func NewAPI(authorizer *Service, logger *slog.Logger) *API {
	return &API{
		authorizer: authorizer,
		logger:     logger,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Post("/transactions", a.authorize)
	r.Get("/merchants", a.listMerchants)
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", a.listAccounts)
		r.Route("/{accountID}", func(r chi.Router) {
			r.Get("/", a.getAccount)
			r.Get("/balances/{category}", a.getBalance)
			r.Get("/authorizations", a.listAuthorizations)
		})
	})
}

type transactionRequest struct {
	Account  string           `json:"account"`
	Amount   *decimal.Decimal `json:"amount"`
	MCC      string           `json:"mcc"`
	Merchant string           `json:"merchant"`
}

func (a *API) authorize(w http.ResponseWriter, r *http.Request) {
	req := transactionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Amount == nil {
		http.Error(w, "amount is required", http.StatusBadRequest)
		return
	}

	txn := models.Transaction{
		ID:        uuid.New().String(),
		AccountID: req.Account,
		Amount:    *req.Amount,
		MCC:       req.MCC,
		Merchant:  req.Merchant,
	}
	if err := txn.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	decision, err := a.authorizer.Authorize(r.Context(), txn)
	if err != nil {
		a.internalError(w, "authorizing transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

func (a *API) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.authorizer.ListAccounts(r.Context())
	if err != nil {
		a.internalError(w, "listing accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	account, err := a.authorizer.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, models.DeclinedUnknownAccount())
		} else {
			a.internalError(w, "finding account", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (a *API) getBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	category := models.ParseCategory(chi.URLParam(r, "category"))

	balance, err := a.authorizer.GetBalance(r.Context(), accountID, category)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, models.DeclinedUnknownAccount())
		} else {
			a.internalError(w, "reading balance", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Account  string          `json:"account"`
		Category models.Category `json:"category"`
		Balance  decimal.Decimal `json:"balance"`
	}{accountID, category.Bucket(), balance})
}

func (a *API) listAuthorizations(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	auths, err := a.authorizer.ListAuthorizations(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, models.DeclinedUnknownAccount())
		} else {
			a.internalError(w, "listing authorizations", err)
		}
		return
	}
	if auths == nil {
		auths = []*models.Authorization{}
	}

	writeJSON(w, http.StatusOK, auths)
}

func (a *API) listMerchants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.authorizer.Merchants())
}

// internalError hides the cause from the caller and logs it.
func (a *API) internalError(w http.ResponseWriter, msg string, err error) {
	a.logger.Error(msg, slog.Any("err", err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
