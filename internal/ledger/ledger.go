// Package ledger keeps the segmented balances of every account and the
// journal of approved authorizations.
package ledger

import (
	"errors"

	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidAmount   = errors.New("amount must be positive and in whole cents")
)

func validateAmount(amount decimal.Decimal) error {
	if !models.ValidAmount(amount) {
		return ErrInvalidAmount
	}
	return nil
}
