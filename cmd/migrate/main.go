package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bookshelf/bookshelf-go/internal/config"
	"github.com/bookshelf/bookshelf-go/internal/logger"
	"github.com/bookshelf/bookshelf-go/internal/repository"
)

var (
	driver string
	dsn    string
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the bookshelf database schema",
	Long: `Apply, roll back or inspect the embedded schema migrations.

Connection settings come from the usual configuration (config.yaml, .env,
DATABASE_DRIVER and DATABASE_DSN) unless overridden by flags.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(logger.New(logger.Config{Writer: os.Stderr, Format: "text"}))
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *repository.DB) error {
			if err := repository.Migrate(ctx, db); err != nil {
				return err
			}
			return printVersion(ctx, cmd, db)
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *repository.DB) error {
			if err := repository.MigrateDown(ctx, db); err != nil {
				return err
			}
			return printVersion(ctx, cmd, db)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which migrations have been applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *repository.DB) error {
			if err := repository.MigrationStatus(ctx, db); err != nil {
				return err
			}
			return printVersion(ctx, cmd, db)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "Database driver: sqlite, postgres or mysql (overrides DATABASE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database connection string (overrides DATABASE_DSN)")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withDB(ctx context.Context, fn func(context.Context, *repository.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}

	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, db)
}

func printVersion(ctx context.Context, cmd *cobra.Command, db *repository.DB) error {
	v, err := repository.Version(ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s schema version: %d\n", db.Dialect(), v)
	return nil
}
