package models

// MerchantPattern maps a merchant name fragment to the MCC that merchant
// should be authorized under.
type MerchantPattern struct {
	Pattern string `json:"merchant" mapstructure:"pattern"`
	MCC     string `json:"mcc" mapstructure:"mcc"`
}
