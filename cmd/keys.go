package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/spn"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage archive.org API keys",
		Long: `Manage the archive.org S3-style API keys stored in the OS keyring.

Keys are also read from the s3_access_key and s3_secret_key environment
variables and from a .env file, which take precedence over the keyring.`,
	}
	cmd.AddCommand(newKeysSetCmd(), newKeysDeleteCmd())
	return cmd
}

// Keyring failures are reported but do not fail the command.
func newKeysSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set ACCESS_KEY SECRET_KEY",
		Short: "Store your archive.org API keys",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cred := spn.Credential{AccessKey: args[0], SecretKey: args[1]}
			if err := appInstance.Keys().Set(cred); err != nil {
				appInstance.GetLogger().Error("failed to store keys", zap.Error(err))
				fmt.Fprintln(cmd.OutOrStdout(), "keys were not stored")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "keys stored")
			return nil
		},
	}
}

func newKeysDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete your stored archive.org API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := appInstance.Keys().Delete(); err != nil {
				appInstance.GetLogger().Error("failed to delete keys", zap.Error(err))
				fmt.Fprintln(cmd.OutOrStdout(), "keys were not deleted")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "keys deleted")
			return nil
		},
	}
}
