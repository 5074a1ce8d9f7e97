// Tabula CLI — инструмент командной строки для работы с датасетами,
// workflows, runs и schedules через HTTP API.
//
// Использование:
//
//	tabula [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	dataset   Управление датасетами
//	workflow  Управление workflows
//	run       Управление runs
//	schedule  Управление schedules
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tabula/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	defaultURL := os.Getenv("TABULA_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	rootCmd := &cobra.Command{
		Use:           "tabula",
		Short:         "Tabula CLI — spreadsheet workflow tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewDatasetCmd(clientFn, outputFn),
		cli.NewWorkflowCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewScheduleCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
