// evogen is the main CLI: serve the REST API, run the pipeline over
// local files, or expose it as an MCP server.
//
// Usage:
//
//	evogen serve [--addr=:8080]
//	evogen generate <file>... [--target=9] [--out=dataset.json]
//	evogen mcp
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/duynguyendang/evogen/internal/logging"
	"github.com/duynguyendang/evogen/pkg/evol"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagLogLevel  string
	flagLogFormat string
	flagConfig    string
)

var rootCmd = &cobra.Command{
	Use:   "evogen",
	Short: "Synthetic question/answer dataset generation with Evol-Instruct",
	Long: "EvoGen generates synthetic question/answer/context datasets from\n" +
		"source documents using the Evol-Instruct methodology: seed questions\n" +
		"are evolved along simple, multi-context and reasoning axes, then\n" +
		"answered against the documents.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(flagLogLevel, flagLogFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.Version = version
}

// loadConfig resolves the effective config: defaults, then the optional
// config file.
func loadConfig() (evol.Config, error) {
	if flagConfig == "" {
		return evol.DefaultConfig(), nil
	}
	return evol.LoadConfig(flagConfig)
}

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
