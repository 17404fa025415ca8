package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrMalformedTransaction = errors.New("malformed transaction")

// AmountPlaces is the number of decimal places amounts and balances are
// kept in.
const AmountPlaces = 2

// ValidAmount reports whether amount is positive and a whole number of
// minor units.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Truncate(AmountPlaces))
}

// Transaction is a single point-of-sale purchase to authorize. It is built per
// request and never stored.
type Transaction struct {
	ID        string
	AccountID string
	Amount    decimal.Decimal
	MCC       string
	Merchant  string
}

// Validate checks that the fields required to route the transaction are
// present. A non-positive amount is not a format problem: it is declined by
// the authorizer.
func (t Transaction) Validate() error {
	var missing []string
	if strings.TrimSpace(t.AccountID) == "" {
		missing = append(missing, "account")
	}
	if strings.TrimSpace(t.MCC) == "" {
		missing = append(missing, "mcc")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMalformedTransaction, strings.Join(missing, ", "))
	}
	return nil
}
