package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/duynguyendang/evogen/internal/logging"
	"github.com/duynguyendang/evogen/pkg/server"
	"github.com/duynguyendang/evogen/pkg/service/ai"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Starts the HTTP server exposing dataset generation endpoints and an
SSE stream of pipeline progress events at /v1/events.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default :8080, or :$PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backend, err := ai.NewGeminiService(cmd.Context(), "", cfg.Model, cfg.Temperature)
	if err != nil {
		return err
	}
	defer backend.Close()

	addr := flagAddr
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}

	logging.New("serve").Info("starting REST API server", "addr", addr, "model", cfg.Model)
	return server.NewServer(cfg, backend).Run(addr)
}
