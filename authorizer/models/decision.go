package models

const (
	ApprovalCodeApproved          = "00"
	ApprovalCodeInvalidAmount     = "07"
	ApprovalCodeUnknownAccount    = "14"
	ApprovalCodeInsufficientFunds = "51"
)

// Decision is the outcome of an authorization. Declines are regular values,
// not errors.
type Decision struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
}

func (d Decision) Approved() bool {
	return d.Code == ApprovalCodeApproved
}

func Approved(authorizationCode string) Decision {
	return Decision{
		Code:              ApprovalCodeApproved,
		Message:           "Transaction approved.",
		AuthorizationCode: authorizationCode,
	}
}

func DeclinedInsufficientFunds() Decision {
	return Decision{Code: ApprovalCodeInsufficientFunds, Message: "Insufficient balance."}
}

func DeclinedInvalidAmount() Decision {
	return Decision{Code: ApprovalCodeInvalidAmount, Message: "Transaction blocked."}
}

func DeclinedUnknownAccount() Decision {
	return Decision{Code: ApprovalCodeUnknownAccount, Message: "Account not found."}
}
