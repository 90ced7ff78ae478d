package main

import (
	"github.com/spf13/cobra"

	"github.com/duynguyendang/evogen/pkg/mcp"
	"github.com/duynguyendang/evogen/pkg/service/ai"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing dataset generation as
tools, for editor and agent integration.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backend, err := ai.NewGeminiService(cmd.Context(), "", cfg.Model, cfg.Temperature)
	if err != nil {
		return err
	}
	defer backend.Close()

	return mcp.Run(cmd.Context(), cfg, backend)
}
