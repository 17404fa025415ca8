package authorizer_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jonanatree/benefit-authorizer/authorizer"
	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/jonanatree/benefit-authorizer/internal/category"
	"github.com/jonanatree/benefit-authorizer/internal/ledger"
	"github.com/jonanatree/benefit-authorizer/internal/merchant"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	svc, _, _ := newService(t)
	r := chi.NewRouter()
	authorizer.NewAPI(svc, discardLogger()).AppendRoutes(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, buf))
	return w
}

func TestAPI_Authorize(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name     string
		body     string
		status   int
		wantCode string
	}{
		{"approved", `{"account":"user_001","amount":100,"mcc":"5811","merchant":"RESTAURANTE"}`, http.StatusOK, "00"},
		{"string amount", `{"account":"user_001","amount":"10.25","mcc":"5411"}`, http.StatusOK, "00"},
		{"invalid amount", `{"account":"user_001","amount":0,"mcc":"5411"}`, http.StatusOK, "07"},
		{"fraction of a cent", `{"account":"user_001","amount":"0.004","mcc":"5411"}`, http.StatusOK, "07"},
		{"unknown account", `{"account":"nobody","amount":10,"mcc":"5411"}`, http.StatusOK, "14"},
		{"insufficient", `{"account":"user_001","amount":99999,"mcc":"5411"}`, http.StatusOK, "51"},
		{"missing account", `{"amount":10,"mcc":"5411"}`, http.StatusBadRequest, ""},
		{"missing mcc", `{"account":"user_001","amount":10}`, http.StatusBadRequest, ""},
		{"missing amount", `{"account":"user_001","mcc":"5411"}`, http.StatusBadRequest, ""},
		{"bad json", `{"account":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/transactions", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.wantCode == "" {
				return
			}
			var decision models.Decision
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
			require.Equal(t, tt.wantCode, decision.Code)
			require.NotEmpty(t, decision.Message)
		})
	}
}

func TestAPI_Accounts(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/transactions", `{"account":"user_001","amount":100,"mcc":"5812"}`)
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("get account", func(t *testing.T) {
		w := do(r, http.MethodGet, "/accounts/user_001", "")
		require.Equal(t, http.StatusOK, w.Code)
		var account models.Account
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
		require.Equal(t, "user_001", account.ID)
		require.Equal(t, "200", account.Meal.String())
	})

	t.Run("unknown account", func(t *testing.T) {
		w := do(r, http.MethodGet, "/accounts/nobody", "")
		require.Equal(t, http.StatusNotFound, w.Code)
		var decision models.Decision
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
		require.Equal(t, models.ApprovalCodeUnknownAccount, decision.Code)
	})

	t.Run("balance", func(t *testing.T) {
		w := do(r, http.MethodGet, "/accounts/user_001/balances/meal", "")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Category string `json:"category"`
			Balance  string `json:"balance"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, "MEAL", body.Category)
		require.Equal(t, "200", body.Balance)

		w = do(r, http.MethodGet, "/accounts/user_001/balances/transport", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, "CASH", body.Category)
	})

	t.Run("authorizations", func(t *testing.T) {
		w := do(r, http.MethodGet, "/accounts/user_001/authorizations", "")
		require.Equal(t, http.StatusOK, w.Code)
		var auths []models.Authorization
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auths))
		require.Len(t, auths, 1)
		require.Equal(t, "5812", auths[0].MCC)
		require.Equal(t, models.CategoryMeal, auths[0].Category)
	})

	t.Run("list", func(t *testing.T) {
		w := do(r, http.MethodGet, "/accounts", "")
		require.Equal(t, http.StatusOK, w.Code)
		var accounts []models.Account
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accounts))
		require.Len(t, accounts, 1)
	})
}

func TestAPI_Merchants(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodGet, "/merchants", "")
	require.Equal(t, http.StatusOK, w.Code)

	var merchants []models.MerchantPattern
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &merchants))
	require.Equal(t, merchant.DefaultPatterns, merchants)
}

func TestAPI_InternalErrorIsGeneric(t *testing.T) {
	l := &stubLedger{known: true, deductErr: ledger.ErrInvalidAmount}
	svc := authorizer.NewService(discardLogger(), l, ledger.NewMemoryJournal(), merchant.NewCorrector(nil), category.Resolver{})
	r := chi.NewRouter()
	authorizer.NewAPI(svc, discardLogger()).AppendRoutes(r)

	w := do(r, http.MethodPost, "/transactions", `{"account":"user_001","amount":10,"mcc":"5411"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "internal error\n", w.Body.String())
}
