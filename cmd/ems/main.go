// Command ems runs the budget engine API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ems/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "ems",
	Short: "Personal finance API with budget alerts",
	Long: `ems tracks expenses and incomes against monthly budgets.

Configuration is read from the environment (and a .env file when present).
Run "ems serve" to start the API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
}

func main() {
	cli.LoadEnvFile()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// logLevel prefers the --log-level flag over the configured level.
func logLevel(cmd *cobra.Command, configured string) string {
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		return v
	}
	return configured
}
