package main

import (
	"encoding/json"
	"fmt"
	"time"

	issuer8583 "github.com/jonanatree/benefit-authorizer/authorizer/iso8583"
	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func authorizeCmd() *cobra.Command {
	var (
		addr     string
		account  string
		amount   string
		mcc      string
		merchant string
		stan     string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Send a single authorization request to a running responder",
		Example: `  authorizer authorize --account user_001 --amount 75 --mcc 9999 \
    --merchant "UBER EATS           SAO PAULO BR"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			txn := models.Transaction{
				ID:        stan,
				AccountID: account,
				Amount:    value,
				MCC:       mcc,
				Merchant:  merchant,
			}
			if err := txn.Validate(); err != nil {
				return err
			}

			client, err := issuer8583.Dial(addr, timeout)
			if err != nil {
				return err
			}
			defer client.Close()

			decision, err := client.Authorize(txn)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(decision)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8583", "ISO 8583 responder address")
	cmd.Flags().StringVar(&account, "account", "", "account identifier")
	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount, e.g. 12.50")
	cmd.Flags().StringVar(&mcc, "mcc", "", "merchant category code")
	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant descriptor")
	cmd.Flags().StringVar(&stan, "stan", "", "6 digit trace number (random when empty)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "response timeout")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("mcc")

	return cmd
}
