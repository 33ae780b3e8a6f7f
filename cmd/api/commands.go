package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/studentmanagement/internal/bootstrap"
	"github.com/yigit/studentmanagement/internal/config"
	"github.com/yigit/studentmanagement/internal/server"
)

// NewRootCmd creates the root command. Without a subcommand it starts the server.
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Student management REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configFile)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "config file path")

	cmd.AddCommand(newServeCmd(&configFile))
	cmd.AddCommand(newMigrateCmd(&configFile))
	cmd.AddCommand(newSeedCmd(&configFile))

	return cmd
}

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Connect to PostgreSQL, apply migrations, seed an empty store and serve the API until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configFile)
		},
	}
}

func newMigrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending embedded migrations against the PostgreSQL database and exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(*configFile)
			if err != nil {
				return err
			}

			database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			database.Close()

			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}

func newSeedCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the default admin and demo data",
		Long:  `Apply migrations, then create the configured admin (and the demo roster when seed.demo_data is set) if no users exist.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(*configFile)
			if err != nil {
				return err
			}
			cfg.Seed.Enabled = true

			database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer database.Close()

			deps := bootstrap.BuildDependencies(cfg, database.Pool, lgr)
			if err := bootstrap.SeedData(ctx, cfg, deps); err != nil {
				return err
			}

			cmd.Println("Seeding completed")
			return nil
		},
	}
}

func runServe(ctx context.Context, configFile string) error {
	srv, err := server.NewServer(ctx, configFile)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	return srv.Run()
}
