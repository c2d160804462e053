package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/solatis/bamboorules/internal/core/auth"
	"github.com/solatis/bamboorules/internal/core/config"
	"github.com/solatis/bamboorules/internal/types"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys for the rule service",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint an API key and store its hash",
	Long: `Mint an API key signed by one of the HMAC secrets in BR_HMAC_SECRET or
BR_HMAC_SECRET_<n>. The key is printed once; only its hash is stored.`,
	Args: cobra.NoArgs,
	RunE: withStore(runAPIKeyCreate),
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  withStore(runAPIKeyRevoke),
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyRevokeCmd)
	apikeyCreateCmd.Flags().String("name", "", "label for the key")
	apikeyCreateCmd.Flags().String("secret-id", "", "secret to sign with (default: first configured)")
	_ = apikeyCreateCmd.MarkFlagRequired("name")
}

func runAPIKeyCreate(ctx context.Context, cmd *cobra.Command, st *store, args []string) error {
	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set BR_HMAC_SECRET environment variable)")
	}

	secretID, _ := cmd.Flags().GetString("secret-id")
	if secretID == "" {
		ids := make([]string, 0, len(secrets))
		for id := range secrets {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		secretID = ids[0]
	}
	secret, ok := secrets[secretID]
	if !ok {
		return fmt.Errorf("secret %s is not configured", secretID)
	}

	key, hash, err := auth.GenerateAPIKey(secretID, secret)
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("name")
	created, err := st.CreateAPIKey(ctx, name, secretID, hash)
	if err != nil {
		return err
	}

	logger.Info("Created API key", "api_key_id", created.APIKeyID, "name", name, "secret_id", secretID)
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

func runAPIKeyRevoke(ctx context.Context, cmd *cobra.Command, st *store, args []string) error {
	if err := st.RevokeAPIKey(ctx, types.APIKeyID(args[0])); err != nil {
		return err
	}
	logger.Info("Revoked API key", "api_key_id", args[0])
	return nil
}
