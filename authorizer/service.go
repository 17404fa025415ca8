package authorizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/jonanatree/benefit-authorizer/internal/ledger"
	"github.com/jonanatree/benefit-authorizer/internal/redact"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

var ErrNotFound = fmt.Errorf("not found")

// Ledger holds the segmented balances and doubles as the account lookup.
type Ledger interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	GetBalance(ctx context.Context, id string, c models.Category) (decimal.Decimal, error)
	Deduct(ctx context.Context, id string, c models.Category, amount decimal.Decimal) (bool, error)
	Ping(ctx context.Context) error
}

// Journal stores approved authorizations.
type Journal interface {
	Record(ctx context.Context, auth *models.Authorization) error
	List(ctx context.Context, accountID string) ([]*models.Authorization, error)
}

type CategoryResolver interface {
	Resolve(mcc string) models.Category
}

type MerchantCorrector interface {
	CorrectMCC(descriptor, originalMCC string) string
	Patterns() []models.MerchantPattern
}

type Service struct {
	logger    *slog.Logger
	ledger    Ledger
	journal   Journal
	corrector MerchantCorrector
	resolver  CategoryResolver
	now       func() time.Time
}

func NewService(logger *slog.Logger, ledger Ledger, journal Journal, corrector MerchantCorrector, resolver CategoryResolver) *Service {
	return &Service{
		logger:    logger,
		ledger:    ledger,
		journal:   journal,
		corrector: corrector,
		resolver:  resolver,
		now:       time.Now,
	}
}

// Authorize runs the decision flow for a single transaction. Every business
// outcome is returned as a Decision; an error means the request could not be
// decided at all.
func (s *Service) Authorize(ctx context.Context, txn models.Transaction) (models.Decision, error) {
	if err := txn.Validate(); err != nil {
		return models.Decision{}, err
	}
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	logger := s.logger.With(slog.String("txn_id", txn.ID), slog.String("account", redact.Account(txn.AccountID)))

	if _, err := s.ledger.GetAccount(ctx, txn.AccountID); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			logger.Info("declined", slog.String("reason", "unknown account"))
			return models.DeclinedUnknownAccount(), nil
		}
		return models.Decision{}, fmt.Errorf("finding account: %w", err)
	}

	if !models.ValidAmount(txn.Amount) {
		logger.Info("declined", slog.String("reason", "invalid amount"), slog.String("amount", txn.Amount.String()))
		return models.DeclinedInvalidAmount(), nil
	}

	mcc := s.corrector.CorrectMCC(txn.Merchant, txn.MCC)
	category := s.resolver.Resolve(mcc)
	if mcc != txn.MCC {
		logger.Debug("mcc corrected", slog.String("merchant", txn.Merchant), slog.String("from", txn.MCC), slog.String("to", mcc))
	}

	debited := category.Bucket()
	ok, err := s.ledger.Deduct(ctx, txn.AccountID, category, txn.Amount)
	if err != nil {
		return models.Decision{}, fmt.Errorf("deducting %s: %w", category, err)
	}

	// already CASH means there is nothing to fall back to
	if !ok && debited != models.CategoryCash {
		debited = models.CategoryCash
		ok, err = s.ledger.Deduct(ctx, txn.AccountID, models.CategoryCash, txn.Amount)
		if err != nil {
			return models.Decision{}, fmt.Errorf("deducting cash fallback: %w", err)
		}
	}

	if !ok {
		logger.Info("declined", slog.String("reason", "insufficient funds"), slog.String("category", string(category)))
		return models.DeclinedInsufficientFunds(), nil
	}

	authCode := generateAuthorizationCode()
	auth := &models.Authorization{
		ID:                uuid.New().String(),
		Reference:         txn.ID,
		AccountID:         txn.AccountID,
		Amount:            txn.Amount,
		MCC:               mcc,
		Merchant:          txn.Merchant,
		Category:          debited,
		AuthorizationCode: authCode,
		CreatedAt:         s.now().UTC(),
	}
	// funds are already debited, a journal failure must not turn into a decline
	if err := s.journal.Record(ctx, auth); err != nil {
		logger.Error("recording authorization", slog.Any("err", err))
	}

	logger.Info("approved",
		slog.String("category", string(category)),
		slog.String("debited", string(debited)),
		slog.String("amount", txn.Amount.String()),
	)
	return models.Approved(authCode), nil
}

func (s *Service) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.ledger.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, fmt.Errorf("finding account: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("finding account: %w", err)
	}
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.ledger.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) GetBalance(ctx context.Context, accountID string, c models.Category) (decimal.Decimal, error) {
	balance, err := s.ledger.GetBalance(ctx, accountID, c)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return decimal.Zero, fmt.Errorf("reading balance: %w", ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("reading balance: %w", err)
	}
	return balance, nil
}

// ListAuthorizations returns the approved authorizations of an account.
func (s *Service) ListAuthorizations(ctx context.Context, accountID string) ([]*models.Authorization, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	auths, err := s.journal.List(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing authorizations: %w", err)
	}
	return auths, nil
}

func (s *Service) Merchants() []models.MerchantPattern {
	return s.corrector.Patterns()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.ledger.Ping(ctx)
}

func generateAuthorizationCode() string {
	return generateRandomNumber(6)
}

func generateRandomNumber(length int) string {
	digits := make([]byte, length)
	for i := range digits {
		digits[i] = byte('0' + rand.Intn(10))
	}
	return string(digits)
}
