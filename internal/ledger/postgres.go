package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const statementTimeout = 3 * time.Second

const schema = `
CREATE SCHEMA IF NOT EXISTS benefits;

CREATE TABLE IF NOT EXISTS benefits.accounts (
    account_id   text PRIMARY KEY,
    food_balance numeric(18,2) NOT NULL CHECK (food_balance >= 0),
    meal_balance numeric(18,2) NOT NULL CHECK (meal_balance >= 0),
    cash_balance numeric(18,2) NOT NULL CHECK (cash_balance >= 0),
    updated_at   timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS benefits.authorizations (
    auth_id            uuid PRIMARY KEY,
    reference          text NOT NULL,
    account_id         text NOT NULL REFERENCES benefits.accounts(account_id),
    amount             numeric(18,2) NOT NULL,
    mcc                text NOT NULL,
    merchant_name      text NOT NULL,
    category           text NOT NULL,
    authorization_code text NOT NULL,
    created_at         timestamptz NOT NULL DEFAULT now()
);
`

// Postgres is a ledger backed by the benefits schema. Every deduction is a
// single conditional UPDATE, so the sufficiency check cannot interleave with
// another deduction on the same row.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func balanceColumn(c models.Category) string {
	switch c.Bucket() {
	case models.CategoryFood:
		return "food_balance"
	case models.CategoryMeal:
		return "meal_balance"
	default:
		return "cash_balance"
	}
}

// Migrate creates the schema when it does not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Seed inserts the given accounts. Accounts that already exist keep their
// current balances.
func (p *Postgres) Seed(ctx context.Context, accounts []models.Account) (int, error) {
	inserted := 0
	for _, a := range accounts {
		_, err := p.db.ExecContext(ctx, `
            INSERT INTO benefits.accounts(account_id, food_balance, meal_balance, cash_balance)
            VALUES ($1,$2,$3,$4)
        `, a.ID, a.Food, a.Meal, a.Cash)
		if isUniqueViolation(err) {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("seeding account %s: %w", a.ID, err)
		}
		inserted++
	}
	return inserted, nil
}

func (p *Postgres) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()
	row := p.db.QueryRowContext(ctx, `SELECT account_id, food_balance, meal_balance, cash_balance FROM benefits.accounts WHERE account_id=$1`, id)
	var a models.Account
	if err := row.Scan(&a.ID, &a.Food, &a.Meal, &a.Cash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("reading account: %w", err)
	}
	return &a, nil
}

func (p *Postgres) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()
	rows, err := p.db.QueryContext(ctx, `SELECT account_id, food_balance, meal_balance, cash_balance FROM benefits.accounts ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()
	var out []*models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Food, &a.Meal, &a.Cash); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (p *Postgres) GetBalance(ctx context.Context, id string, c models.Category) (decimal.Decimal, error) {
	a, err := p.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return a.Balance(c), nil
}

func (p *Postgres) Deduct(ctx context.Context, id string, c models.Category, amount decimal.Decimal) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	col := balanceColumn(c)
	res, err := p.db.ExecContext(ctx, fmt.Sprintf(`
        UPDATE benefits.accounts
           SET %[1]s = %[1]s - $2,
               updated_at = now()
         WHERE account_id=$1 AND %[1]s >= $2
    `, col), id, amount)
	if err != nil {
		return false, fmt.Errorf("deducting %s: %w", col, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deducting %s: %w", col, err)
	}
	if n == 1 {
		return true, nil
	}

	var exists bool
	if err := p.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM benefits.accounts WHERE account_id=$1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("probing account: %w", err)
	}
	if !exists {
		return false, ErrAccountNotFound
	}
	return false, nil
}

// Record stores an approved authorization.
func (p *Postgres) Record(ctx context.Context, auth *models.Authorization) error {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()
	_, err := p.db.ExecContext(ctx, `
        INSERT INTO benefits.authorizations(auth_id, reference, account_id, amount, mcc, merchant_name, category, authorization_code, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, auth.ID, auth.Reference, auth.AccountID, auth.Amount, auth.MCC, auth.Merchant, string(auth.Category), auth.AuthorizationCode, auth.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("authorization %s: %w", auth.ID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("recording authorization: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, accountID string) ([]*models.Authorization, error) {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()
	rows, err := p.db.QueryContext(ctx, `
        SELECT auth_id, reference, account_id, amount, mcc, merchant_name, category, authorization_code, created_at
          FROM benefits.authorizations
         WHERE account_id=$1
         ORDER BY created_at DESC
    `, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing authorizations: %w", err)
	}
	defer rows.Close()
	var out []*models.Authorization
	for rows.Next() {
		var a models.Authorization
		var category string
		if err := rows.Scan(&a.ID, &a.Reference, &a.AccountID, &a.Amount, &a.MCC, &a.Merchant, &category, &a.AuthorizationCode, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning authorization: %w", err)
		}
		a.Category = models.Category(category)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	return false
}
