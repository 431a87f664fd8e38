package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-account-auth"
	"github.com/goliatone/go-account-auth/internal/bunx"
)

var (
	seedName     string
	seedEmail    string
	seedPassword string
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Account maintenance commands",
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the first administrator",
	Long: `Creates an Admin account from flags or the seed.* configuration.
Nothing changes when an active account already uses the email.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedName != "" {
			cfg.Seed.AdminName = seedName
		}
		if seedEmail != "" {
			cfg.Seed.AdminEmail = seedEmail
		}
		if seedPassword != "" {
			cfg.Seed.AdminPassword = seedPassword
		}

		if cfg.Seed.AdminEmail == "" {
			return fmt.Errorf("admin email is required (--email or AUTHD_SEED_ADMIN_EMAIL)")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer bunx.Close(db)

		return seedAdmin(cmd.Context(), auth.NewRepositoryManager(db))
	},
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedName, "name", "", "Display name of the admin")
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "Email of the admin")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "Password of the admin (prefer AUTHD_SEED_ADMIN_PASSWORD)")

	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(seedAdminCmd)
}
