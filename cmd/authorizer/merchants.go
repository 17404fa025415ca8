package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jonanatree/benefit-authorizer/authorizer"
	"github.com/jonanatree/benefit-authorizer/internal/category"
	"github.com/jonanatree/benefit-authorizer/internal/merchant"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func merchantsCmd() *cobra.Command {
	var descriptor string

	cmd := &cobra.Command{
		Use:   "merchants",
		Short: "Show the merchant table, or test a descriptor against it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := authorizer.LoadConfig(viper.GetViper())
			if err != nil {
				return err
			}
			corrector := merchant.NewCorrector(cfg.Merchants)
			out := cmd.OutOrStdout()

			if descriptor != "" {
				mcc, ok := corrector.Lookup(descriptor)
				if !ok {
					fmt.Fprintf(out, "%q: no match\n", merchant.Normalize(descriptor))
					return nil
				}
				fmt.Fprintf(out, "%q: mcc %s (%s)\n", merchant.Normalize(descriptor), mcc, category.Resolve(mcc))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tPATTERN\tMCC\tCATEGORY")
			for i, p := range corrector.Patterns() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, p.Pattern, p.MCC, category.Resolve(p.MCC))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&descriptor, "match", "", "merchant descriptor to test")

	return cmd
}
