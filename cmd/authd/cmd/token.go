package cmd

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-account-auth"
)

var verifyToken bool

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Token tooling",
}

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect <token>",
	Short: "Decode a token and print its claims",
	Long: `Decodes the claims without checking the signature, the way a client
does. Pass --verify to validate it with the configured signing key.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := strings.TrimSpace(args[0])
		out := cmd.OutOrStdout()

		claims := &auth.AccountClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
			return fmt.Errorf("failed to decode token: %w", err)
		}

		fmt.Fprintln(out, print.MaybePrettyJSON(claims))

		state := auth.NewClientGuard(cfg.GetLoginPath()).State(raw)
		fmt.Fprintln(out, print.MaybePrettyJSON(state))

		if !verifyToken {
			return nil
		}

		if _, err := auth.TokenServiceFromConfig(cfg, logger).Validate(raw); err != nil {
			return fmt.Errorf("token rejected: %w", err)
		}
		fmt.Fprintln(out, "signature and claims valid")
		return nil
	},
}

func init() {
	tokenInspectCmd.Flags().BoolVar(&verifyToken, "verify", false, "Validate signature, expiry, issuer and audience")
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenInspectCmd)
}
