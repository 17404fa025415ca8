package iso8583

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/moov-io/iso8583"
	connection "github.com/moov-io/iso8583-connection"
	"github.com/moov-io/iso8583/field"
)

// Client sends authorization requests to a Server.
type Client struct {
	conn *connection.Connection
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := connection.New(addr, spec, readMessageLength, writeMessageLength,
		connection.SendTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating connection: %w", err)
	}
	if err := conn.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Authorize sends a 0100 for txn and returns the decision carried by the 0110.
func (c *Client) Authorize(txn models.Transaction) (models.Decision, error) {
	minor := txn.Amount.Shift(models.AmountPlaces)
	if !minor.IsInteger() {
		return models.Decision{}, fmt.Errorf("amount %s has more than 2 decimal places", txn.Amount)
	}
	if minor.IsNegative() {
		return models.Decision{}, fmt.Errorf("amount %s cannot be sent as a negative value", txn.Amount)
	}

	stan := txn.ID
	if stan == "" {
		stan = fmt.Sprintf("%06d", rand.Intn(1_000_000))
	}

	request := &AuthorizationRequest{
		MTI:                  field.NewStringValue(MTIAuthorizationRequest),
		AccountID:            field.NewStringValue(txn.AccountID),
		ProcessingCode:       field.NewStringValue(processingCodePurchase),
		Amount:               field.NewNumericValue(minor.IntPart()),
		TransmissionDateTime: field.NewStringValue(time.Now().UTC().Format("0102150405")),
		STAN:                 field.NewStringValue(stan),
		MCC:                  field.NewStringValue(txn.MCC),
	}
	if txn.Merchant != "" {
		request.CardAcceptor = field.NewStringValue(txn.Merchant)
	}

	message := iso8583.NewMessage(spec)
	if err := message.Marshal(request); err != nil {
		return models.Decision{}, fmt.Errorf("marshaling request: %w", err)
	}

	reply, err := c.conn.Send(message)
	if err != nil {
		return models.Decision{}, fmt.Errorf("sending request: %w", err)
	}

	response := &AuthorizationResponse{}
	if err := reply.Unmarshal(response); err != nil {
		return models.Decision{}, fmt.Errorf("unmarshaling response: %w", err)
	}

	return DecisionFromResponseCode(stringValue(response.ResponseCode), stringValue(response.AuthorizationCode)), nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// DecisionFromResponseCode maps a DE39 response code back to a decision.
func DecisionFromResponseCode(code, authorizationCode string) models.Decision {
	switch code {
	case models.ApprovalCodeApproved:
		return models.Approved(authorizationCode)
	case models.ApprovalCodeInsufficientFunds:
		return models.DeclinedInsufficientFunds()
	case models.ApprovalCodeInvalidAmount:
		return models.DeclinedInvalidAmount()
	case models.ApprovalCodeUnknownAccount:
		return models.DeclinedUnknownAccount()
	case ResponseCodeFormatError:
		return models.Decision{Code: code, Message: "Format error."}
	case ResponseCodeSystemMalfunction:
		return models.Decision{Code: code, Message: "System malfunction."}
	default:
		return models.Decision{Code: code, Message: "Unknown response code."}
	}
}
