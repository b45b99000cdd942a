// Command ems-export-worker consumes record events from RabbitMQ and appends
// each change to a Google Sheets tab.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ems/internal/amqp"
	"ems/internal/cli"
	"ems/internal/config"
	"ems/internal/log"
	"ems/internal/sheets"
	gsheet "ems/internal/sheets/google"
	"ems/internal/sheets/memory"
	"ems/internal/worker"
)

var rootCmd = &cobra.Command{
	Use:   "ems-export-worker",
	Short: "Export record changes to Google Sheets",
	Long: `Consume record events published by the API and append one row per
change to the export sheet. Deletions are written as tombstone rows.

With --dry-run rows are kept in memory and logged instead of sent to
Google Sheets.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().String("log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.Flags().Bool("dry-run", false, "Keep exported rows in memory instead of writing to Google Sheets")
}

func main() {
	cli.LoadEnvFile()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	validate := (*config.Config).ValidateExportWorker
	if dryRun {
		validate = func(c *config.Config) error {
			if err := c.Validate(); err != nil {
				return err
			}
			if !c.EventsEnabled() {
				return fmt.Errorf("AMQP_URL is required for the export worker")
			}
			return nil
		}
	}
	cfg, err := cli.LoadConfig(validate)
	if err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfg.LogLevel
	}
	logger, err := cli.SetupLogger(level, log.ComponentWorker)
	if err != nil {
		return err
	}
	logger.Info("Starting ems-export-worker", "dry_run", dryRun)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close SQLite repository", log.FieldError, err)
		}
	}()

	var (
		exporter sheets.RecordExporter
		dryRows  *memory.Exporter
	)
	if dryRun {
		dryRows = memory.New()
		exporter = dryRows
	} else {
		sheet, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			return fmt.Errorf("initialize Google Sheets exporter: %w", err)
		}
		if err := sheet.EnsureHeader(ctx); err != nil {
			return fmt.Errorf("prepare export sheet: %w", err)
		}
		logger.Info("Google Sheets exporter ready",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
		exporter = sheet
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}()

	w := worker.NewExportWorker(client, repo, exporter)
	runErr := w.Run(ctx)

	stats := w.Stats()
	logger.Info("Export worker stopped",
		"exported", stats.Exported,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	if dryRows != nil {
		logger.Info("Dry run rows kept in memory", "rows", len(dryRows.Rows()))
	}
	return runErr
}
