package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Get stats about your account",
		Long:  "Get the number of active and available capture sessions for your account.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := appInstance.Archiver(cmd.Context())
			if err != nil {
				return err
			}
			status, err := svc.GetAccountStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			printFields(cmd.OutOrStdout(), status.Fields())
			return nil
		},
	}
}
