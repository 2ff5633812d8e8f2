package main

import (
	"context"
	"fmt"

	"github.com/doctor-smile-ledger/internal/clinic_api"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func voidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "void <transaction-id>",
		Short: "Void a posted transaction by posting its reversal",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid transaction id %q: %w", args[0], err)
			}
			return withServices(cmd.Context(), func(ctx context.Context, services clinic_api.Services) error {
				reversal, err := services.Engine.VoidTransaction(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"voided_transaction_id": id,
					"reversal":              reversal,
				})
			})
		},
	}
}
