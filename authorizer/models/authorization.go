package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Authorization is a journal entry for an approved transaction.
type Authorization struct {
	ID                string          `json:"id"`
	Reference         string          `json:"reference"`
	AccountID         string          `json:"account"`
	Amount            decimal.Decimal `json:"amount"`
	MCC               string          `json:"mcc"`
	Merchant          string          `json:"merchant"`
	Category          Category        `json:"category"`
	AuthorizationCode string          `json:"authorization_code"`
	CreatedAt         time.Time       `json:"created_at"`
}
