package iso8583

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/jonanatree/benefit-authorizer/internal/redact"
	"github.com/moov-io/iso8583"
	connection "github.com/moov-io/iso8583-connection"
	"github.com/moov-io/iso8583-connection/server"
	"github.com/moov-io/iso8583/field"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

const requestTimeout = 5 * time.Second

// Authorizer decides a transaction.
type Authorizer interface {
	Authorize(ctx context.Context, txn models.Transaction) (models.Decision, error)
}

// Server answers 0100 authorization requests with 0110 responses.
type Server struct {
	Addr string

	logger     *slog.Logger
	authorizer Authorizer
	server     *server.Server
}

func NewServer(logger *slog.Logger, addr string, authorizer Authorizer) *Server {
	return &Server{
		Addr:       addr,
		logger:     logger.With(slog.String("component", "iso8583")),
		authorizer: authorizer,
	}
}

func (s *Server) Start() error {
	srv := server.New(spec, readMessageLength, writeMessageLength,
		connection.InboundMessageHandler(s.handleMessage),
	)

	if err := srv.Start(s.Addr); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	s.server = srv
	s.Addr = srv.Addr
	s.logger.Info("iso8583 server started", slog.String("addr", s.Addr))

	return nil
}

func (s *Server) Close() error {
	if s.server != nil {
		s.server.Close()
	}
	return nil
}

func (s *Server) handleMessage(c *connection.Connection, message *iso8583.Message) {
	request := &AuthorizationRequest{}
	unmarshalErr := message.Unmarshal(request)

	mti, err := message.GetMTI()
	if err != nil {
		s.logger.Error("reading mti", slog.Any("err", err))
		s.reply(c, responseFor(request, ResponseCodeFormatError, ""))
		return
	}

	if mti != MTIAuthorizationRequest {
		replyMTI, ok := responseMTI(mti)
		if !ok {
			// responses are never answered
			s.logger.Info("dropping unsolicited response", slog.String("mti", mti))
			return
		}
		s.logger.Info("unsupported message", slog.String("mti", mti))
		response := responseFor(request, ResponseCodeFormatError, "")
		response.MTI = field.NewStringValue(replyMTI)
		s.reply(c, response)
		return
	}

	if unmarshalErr != nil {
		s.logger.Error("unmarshaling authorization request", slog.Any("err", unmarshalErr))
		s.reply(c, responseFor(request, ResponseCodeFormatError, ""))
		return
	}

	s.reply(c, s.authorize(request))
}

func (s *Server) authorize(request *AuthorizationRequest) *AuthorizationResponse {
	txn, err := transactionFromRequest(request)
	if err != nil {
		s.logger.Info("rejecting authorization request", slog.Any("err", err))
		return responseFor(request, ResponseCodeFormatError, "")
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	decision, err := s.authorizer.Authorize(ctx, txn)
	if err != nil {
		if errors.Is(err, models.ErrMalformedTransaction) {
			return responseFor(request, ResponseCodeFormatError, "")
		}
		s.logger.Error("authorizing",
			slog.String("account", redact.Account(txn.AccountID)),
			slog.String("stan", txn.ID),
			slog.Any("err", err),
		)
		return responseFor(request, ResponseCodeSystemMalfunction, "")
	}

	return responseFor(request, decision.Code, decision.AuthorizationCode)
}

func (s *Server) reply(c *connection.Connection, response *AuthorizationResponse) {
	message := iso8583.NewMessage(spec)
	if err := message.Marshal(response); err != nil {
		s.logger.Error("marshaling authorization response", slog.Any("err", err))
		return
	}
	if err := c.Reply(message); err != nil {
		s.logger.Error("replying", slog.Any("err", err))
	}
}

func transactionFromRequest(request *AuthorizationRequest) (models.Transaction, error) {
	if request.Amount == nil {
		return models.Transaction{}, fmt.Errorf("%w: missing amount", models.ErrMalformedTransaction)
	}
	txn := models.Transaction{
		ID:        stringValue(request.STAN),
		AccountID: stringValue(request.AccountID),
		Amount:    decimal.New(int64(request.Amount.Value()), -2),
		MCC:       stringValue(request.MCC),
		Merchant:  stringValue(request.CardAcceptor),
	}
	if err := txn.Validate(); err != nil {
		return models.Transaction{}, err
	}
	return txn, nil
}

// responseFor echoes the routing fields of the request.
func responseFor(request *AuthorizationRequest, responseCode, authorizationCode string) *AuthorizationResponse {
	response := &AuthorizationResponse{
		MTI:                  field.NewStringValue(MTIAuthorizationResponse),
		AccountID:            request.AccountID,
		ProcessingCode:       request.ProcessingCode,
		Amount:               request.Amount,
		TransmissionDateTime: request.TransmissionDateTime,
		STAN:                 request.STAN,
		ResponseCode:         field.NewStringValue(responseCode),
	}
	if authorizationCode != "" {
		response.AuthorizationCode = field.NewStringValue(authorizationCode)
	}
	return response
}

// responseMTI turns a request MTI into its response MTI, 0200 into 0210.
// It reports false for MTIs that are themselves responses. MTIs that cannot
// be classified are answered as authorization responses.
func responseMTI(mti string) (string, bool) {
	if len(mti) != 4 || mti[2] < '0' || mti[2] > '9' {
		return MTIAuthorizationResponse, true
	}
	if (mti[2]-'0')%2 != 0 {
		return "", false
	}
	return mti[:2] + string(mti[2]+1) + mti[3:], true
}
