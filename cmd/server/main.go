package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bible-chat/backend/internal/app"
	"bible-chat/backend/internal/auth"
	"bible-chat/backend/internal/config"
	"bible-chat/backend/internal/database"
	"bible-chat/backend/internal/logger"
	"bible-chat/backend/internal/persona"
)

// @title           Bible Chat API
// @version         1.0
// @description     Chat backend with biblical personas and streamed replies.
// @BasePath        /

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bible-chat",
	Short: "Bible chat backend",
	Long: `Bible chat backend.

Runs the HTTP server when called without a subcommand.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		if _, err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
			return err
		}
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(database.MigrateUp)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(database.MigrateDown)
	},
}

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the available personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range persona.Canonical().All() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-20s %s\n", p.ID, p.Name, p.Description)
		}
		return nil
	},
}

var (
	tokenUserID string
	tokenType   string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		authn, err := auth.NewJWTAuthenticator(cfg.JWTSecret)
		if err != nil {
			return err
		}
		if tokenUserID == "" {
			tokenUserID = uuid.NewString()
		}
		token, err := authn.Issue(auth.User{ID: tokenUserID, Type: auth.UserType(tokenType)}, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "user id (random when empty)")
	tokenCmd.Flags().StringVar(&tokenType, "type", string(auth.UserTypeGuest), "user type: guest or regular")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, personasCmd, tokenCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()

	return a.Run(ctx)
}

func runMigration(apply func(db *sql.DB) error) error {
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := apply(db); err != nil {
		return err
	}
	version, dirty, err := database.Version(db)
	if err != nil {
		return err
	}
	slog.Info("Database schema updated", "path", cfg.DatabasePath, "version", version, "dirty", dirty)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
