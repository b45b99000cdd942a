package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ems/internal/cli"
	"ems/internal/config"
	"ems/internal/log"
	"ems/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := migrateSetup(cmd)
			if err != nil {
				return err
			}
			if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
				return err
			}
			logger.Info("Database migrations applied", "database", cfg.SQLiteDBPath)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Revert applied migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid steps %q: must be a positive number", args[0])
				}
				steps = n
			}
			cfg, logger, err := migrateSetup(cmd)
			if err != nil {
				return err
			}
			if err := storage.RollbackMigrations(cfg.SQLiteDBPath, steps); err != nil {
				return err
			}
			logger.Info("Database migrations reverted", "database", cfg.SQLiteDBPath, "steps", steps)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := migrateSetup(cmd)
			if err != nil {
				return err
			}
			version, dirty, ok, err := storage.MigrationVersion(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", version)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	})
	return cmd
}

func migrateSetup(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	cfg, err := cli.LoadConfig((*config.Config).Validate)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.SetupLogger(logLevel(cmd, cfg.LogLevel), log.ComponentStorage)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
