package main

import (
	"context"
	"fmt"

	"github.com/doctor-smile-ledger/internal/clinic_api"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored balances with balances recomputed from entries",
		Long:  `Recompute every account balance from its entries and list the accounts whose stored balance differs. Exits non-zero when any mismatch is found.`,
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, services clinic_api.Services) error {
				mismatches, err := services.Reconciler.Reconcile(ctx)
				if err != nil {
					return err
				}
				if len(mismatches) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "all balances match their entries")
					return nil
				}
				if err := printJSON(cmd.OutOrStdout(), mismatches); err != nil {
					return err
				}
				return fmt.Errorf("%d account(s) out of balance", len(mismatches))
			})
		},
	}
}
