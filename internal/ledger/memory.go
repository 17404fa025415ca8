package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

type memoryAccount struct {
	mu      sync.Mutex
	account models.Account
}

// Memory is an in-process ledger. The set of accounts is fixed at
// construction; each account has its own lock so deductions on different
// accounts never wait on each other.
type Memory struct {
	accounts map[string]*memoryAccount
	ids      []string
}

func NewMemory(accounts []models.Account) (*Memory, error) {
	m := &Memory{
		accounts: make(map[string]*memoryAccount, len(accounts)),
		ids:      make([]string, 0, len(accounts)),
	}
	for _, a := range accounts {
		if a.ID == "" {
			return nil, fmt.Errorf("seeding account: empty id")
		}
		if _, ok := m.accounts[a.ID]; ok {
			return nil, fmt.Errorf("seeding account %s: duplicate id", a.ID)
		}
		for _, c := range []models.Category{models.CategoryFood, models.CategoryMeal, models.CategoryCash} {
			if a.Balance(c).IsNegative() {
				return nil, fmt.Errorf("seeding account %s: negative %s balance", a.ID, c)
			}
		}
		m.accounts[a.ID] = &memoryAccount{account: a}
		m.ids = append(m.ids, a.ID)
	}
	slices.Sort(m.ids)
	return m, nil
}

func (m *Memory) get(id string) (*memoryAccount, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

// GetAccount returns a snapshot of the account.
func (m *Memory) GetAccount(_ context.Context, id string) (*models.Account, error) {
	a, err := m.get(id)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	snapshot := a.account
	return &snapshot, nil
}

func (m *Memory) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	out := make([]*models.Account, 0, len(m.ids))
	for _, id := range m.ids {
		a, err := m.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *Memory) GetBalance(_ context.Context, id string, c models.Category) (decimal.Decimal, error) {
	a, err := m.get(id)
	if err != nil {
		return decimal.Zero, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.account.Balance(c), nil
}

// Deduct subtracts amount from the category bucket if the bucket covers it.
// The check and the subtraction happen under the account lock.
func (m *Memory) Deduct(_ context.Context, id string, c models.Category, amount decimal.Decimal) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	a, err := m.get(id)
	if err != nil {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	balance := a.account.Balance(c)
	if balance.LessThan(amount) {
		return false, nil
	}
	a.account.SetBalance(c, balance.Sub(amount))
	return true, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
