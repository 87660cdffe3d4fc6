package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJobCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "job JOB_ID",
		Short: "Get the status of a save job",
		Long:  "Get the status of a save job. JOB_ID is the identifier printed by the save command.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := appInstance.Archiver(cmd.Context())
			if err != nil {
				return err
			}
			status, err := svc.GetStatus(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("job %s: %w", args[0], err)
			}
			printJob(cmd.OutOrStdout(), status, verbose)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every field of the job status")
	return cmd
}
