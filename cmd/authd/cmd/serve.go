package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-account-auth"
	"github.com/goliatone/go-account-auth/internal/bunx"
	"github.com/goliatone/go-account-auth/internal/server"
	"github.com/goliatone/go-account-auth/migrations"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the HTTP API. Requires a signing key.
When seed.admin_email is set the admin account is provisioned on start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer bunx.Close(db)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Database.MigrateOnServe {
			group, err := migrations.Up(ctx, db)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", "group", group.ID)
		}

		if cfg.Seed.AdminEmail != "" {
			if err := seedAdmin(ctx, auth.NewRepositoryManager(db)); err != nil {
				return err
			}
		}

		srv, err := server.New(cfg, db, logger)
		if err != nil {
			return fmt.Errorf("failed to build server: %w", err)
		}

		return srv.Listen(ctx)
	},
}

func seedAdmin(ctx context.Context, repo auth.RepositoryManager) error {
	handler := auth.NewSeedAdminHandler(repo,
		auth.WithCommandLogger(logger),
		auth.WithPasswordAuthenticator(auth.NewPasswordAuthenticator(cfg.GetBcryptCost())),
		auth.WithCommandActivitySink(auth.LoggingActivitySink{Logger: logger}),
	)

	return handler.Execute(ctx, auth.SeedAdminMessage{
		Name:     cfg.Seed.AdminName,
		Email:    cfg.Seed.AdminEmail,
		Password: cfg.Seed.AdminPassword,
	})
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Server bind address (env: AUTHD_SERVER_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
