package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-account-auth"
	"github.com/goliatone/go-account-auth/internal/bunx"
	"github.com/goliatone/go-account-auth/internal/config"
)

var (
	cfgFile string
	debug   bool
	cfg     *config.Config
	logger  auth.Logger
)

var rootCmd = &cobra.Command{
	Use:   "authd",
	Short: "Account authentication service",
	Long: `authd manages accounts and issues role bearing JWTs.
It serves the HTTP API and provides database and operator tooling.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if debug {
			cfg.Debug = true
		}
		logger = newLogger(cfg.Debug)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML config file (env overrides use the AUTHD_ prefix)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (env: AUTHD_DEBUG)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(debug bool) auth.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return auth.NewSlogLogger(slog.New(handler).With("service", "authd"))
}

func openDB() (*bun.DB, error) {
	db, err := bunx.NewDB(cfg.Database.DSN, bunx.Options{
		MaxConnections: cfg.Database.MaxConnections,
		Debug:          cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
