package main

import (
	"github.com/jonanatree/benefit-authorizer/authorizer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the ISO 8583 responder",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := authorizer.LoadConfig(viper.GetViper())
			if err != nil {
				return err
			}

			app := authorizer.NewApp(logger, cfg)
			if err := app.Start(); err != nil {
				app.Shutdown()
				return err
			}

			<-cmd.Context().Done()
			app.Shutdown()
			return nil
		},
	}

	cmd.Flags().String("http-addr", "", "HTTP listen address")
	cmd.Flags().String("iso8583-addr", "", "ISO 8583 listen address")
	cmd.Flags().String("ledger", "", "ledger backend (memory, postgres)")
	cmd.Flags().String("dsn", "", "postgres DSN for the postgres ledger")
	_ = viper.BindPFlag("http_addr", cmd.Flags().Lookup("http-addr"))
	_ = viper.BindPFlag("iso8583_addr", cmd.Flags().Lookup("iso8583-addr"))
	_ = viper.BindPFlag("ledger.backend", cmd.Flags().Lookup("ledger"))
	_ = viper.BindPFlag("ledger.dsn", cmd.Flags().Lookup("dsn"))

	return cmd
}
