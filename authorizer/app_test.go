package authorizer_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jonanatree/benefit-authorizer/authorizer"
	issuer8583 "github.com/jonanatree/benefit-authorizer/authorizer/iso8583"
	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestApp(t *testing.T) {
	cfg := authorizer.DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.ISO8583Addr = "127.0.0.1:0"

	app := authorizer.NewApp(discardLogger(), cfg)
	require.NoError(t, app.Start())
	defer app.Shutdown()

	base := "http://" + app.Addr

	resp, err := http.Get(base + "/-/ready")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// same ledger is reachable from both transports
	resp, err = http.Post(base+"/transactions", "application/json",
		bytes.NewBufferString(`{"account":"user_002","amount":50,"mcc":"5411","merchant":"MERCADO"}`))
	require.NoError(t, err)
	var decision models.Decision
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decision))
	resp.Body.Close()
	require.Equal(t, models.ApprovalCodeApproved, decision.Code)

	client, err := issuer8583.Dial(app.ISO8583ServerAddr, 2*time.Second)
	require.NoError(t, err)
	defer client.Close()

	decision, err = client.Authorize(models.Transaction{
		ID:        "123456",
		AccountID: "user_002",
		Amount:    decimal.NewFromInt(350),
		MCC:       "5412",
	})
	require.NoError(t, err)
	require.Equal(t, models.ApprovalCodeApproved, decision.Code)

	resp, err = http.Get(base + "/accounts/user_002")
	require.NoError(t, err)
	var account models.Account
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&account))
	resp.Body.Close()
	require.Equal(t, "0", account.Food.String())
	require.Equal(t, "1200", account.Cash.String())
}

func TestApp_RejectsInvalidConfig(t *testing.T) {
	cfg := authorizer.DefaultConfig()
	cfg.Ledger.Backend = "postgres"

	app := authorizer.NewApp(discardLogger(), cfg)
	require.Error(t, app.Start())
}
