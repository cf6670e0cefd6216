package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"projectcrm/internal/app"
	"projectcrm/internal/config"
	"projectcrm/internal/db"
	"projectcrm/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "projectcrm",
	Short:         "Project planning CRM",
	Long:          `projectcrm serves the task, project, allocation and time-tracking API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		a, err := app.New(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		if migrateFirst, _ := cmd.Flags().GetBool("migrate"); migrateFirst {
			if err := db.Migrate(a.DB()); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Serve(ctx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		database, err := db.Open(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer database.Close()

		if statusOnly, _ := cmd.Flags().GetBool("status"); !statusOnly {
			if err := db.Migrate(database); err != nil {
				return err
			}
		}
		status, err := db.Status(database)
		if err != nil {
			return err
		}
		fmt.Printf("Current version: %d\n", status.CurrentVersion)
		fmt.Printf("Latest version:  %d\n", status.LatestVersion)
		if status.Dirty {
			fmt.Println("Database is DIRTY, fix the failed migration manually")
		} else if status.Pending {
			fmt.Println("Migrations pending")
		}
		return nil
	},
}

var recalcCostsCmd = &cobra.Command{
	Use:   "recalc-costs",
	Short: "Recompute actual cost of every project from logged billable time",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		a, err := app.New(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Projects.RecalculateAllCosts(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Updated %d projects\n", n)
		return nil
	},
}

func setup() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to the YAML config")
	serveCmd.Flags().Bool("migrate", false, "apply pending migrations before serving")
	migrateCmd.Flags().Bool("status", false, "only print the migration status")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recalcCostsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
