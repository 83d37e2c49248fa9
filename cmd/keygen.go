package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datendrehschei/fsen-admin/internal/auth"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a new key for encrypting the cached API token",
		Long: `Print a random 256-bit key, base64 encoded. Put it into FSEN_TOKEN_KEY
(for example in .env) to store the API token encrypted at rest. An existing
plaintext token cache is replaced at the next login.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateEncryptionKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), auth.EncryptionKeyToBase64(key))
			return nil
		},
	}
}
