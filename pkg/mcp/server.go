// Package mcp exposes the pipeline to MCP clients over Stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/duynguyendang/evogen/pkg/evol"
	"github.com/duynguyendang/evogen/pkg/ingest"
)

// MCPServer wraps a pipeline configuration and backend for MCP access.
type MCPServer struct {
	cfg     evol.Config
	backend evol.Generator
}

// Run starts the MCP server on Stdio.
func Run(ctx context.Context, cfg evol.Config, backend evol.Generator) error {
	s := server.NewMCPServer(
		"EvoGen-Backend",
		"0.1.0",
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	ms := &MCPServer{cfg: cfg, backend: backend}

	// --- Resources ---

	// Resource: Evolution Types
	s.AddResource(
		mcp.NewResource(
			"evogen://evolution-types",
			"Evolution Types",
			mcp.WithResourceDescription("The three question evolution strategies and what they produce"),
			mcp.WithMIMEType("text/markdown"),
		),
		ms.handleEvolutionTypes,
	)

	// Resource: Sample Documents
	s.AddResource(
		mcp.NewResource(
			"evogen://sample-documents",
			"Sample Documents",
			mcp.WithResourceDescription("Built-in sample documents usable as generate_dataset input"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleSampleDocuments,
	)

	// --- Tools ---

	// Tool: Generate Dataset
	s.AddTool(
		mcp.NewTool(
			"generate_dataset",
			mcp.WithDescription("Run the Evol-Instruct pipeline over documents and return evolved questions, answers and contexts."),
			mcp.WithString("documents_json", mcp.Required(), mcp.Description(`JSON array of documents: [{"page_content": "...", "metadata": {}}]`)),
			mcp.WithNumber("target_questions", mcp.Description("Overall question target, 3 to 15 (default 9)")),
		),
		ms.handleGenerateDataset,
	)

	// Tool: Normalize Files
	s.AddTool(
		mcp.NewTool(
			"normalize_files",
			mcp.WithDescription("Convert local text, markdown, CSV or PDF files into pipeline documents."),
			mcp.WithString("paths_json", mcp.Required(), mcp.Description("JSON array of file paths")),
		),
		ms.handleNormalizeFiles,
	)

	// Start the server on Stdio
	slog.Info("Starting MCP server on Stdio")
	return server.ServeStdio(s)
}

// --- Resource Handlers ---

func (ms *MCPServer) handleEvolutionTypes(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	content := `
# Evolution Types

## simple
Adds constraints, depth or extra conditions to a seed question.
One of five rewrite operations is picked at random per seed.

## multi_context
Recasts a seed question to require synthesis across at least two
documents. With fewer than two documents it falls back to a
multi-aspect question over the single document.

## reasoning
Recasts a seed question as a conditional, cause-effect or
scenario-based question requiring inference beyond direct facts.
`
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     content,
		},
	}, nil
}

func (ms *MCPServer) handleSampleDocuments(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.MarshalIndent(evol.SampleDocuments(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sample documents: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleGenerateDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	docsJSON, ok := args["documents_json"].(string)
	if !ok {
		return mcp.NewToolResultError("documents_json argument required"), nil
	}

	var docs []evol.Document
	if err := json.Unmarshal([]byte(docsJSON), &docs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid documents_json: %v", err)), nil
	}

	target := 0
	if t, ok := args["target_questions"].(float64); ok {
		target = int(t)
	}

	docs, _ = ingest.FilterDuplicates(docs)

	pipeline := evol.NewPipeline(ms.cfg, ms.backend, nil)
	result, err := pipeline.Run(ctx, docs, target)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pipeline failed: %v", err)), nil
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to marshal result"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (ms *MCPServer) handleNormalizeFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	pathsJSON, ok := args["paths_json"].(string)
	if !ok {
		return mcp.NewToolResultError("paths_json argument required"), nil
	}

	var paths []string
	if err := json.Unmarshal([]byte(pathsJSON), &paths); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid paths_json: %v", err)), nil
	}

	docs, err := ingest.NormalizeFiles(paths)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("normalization failed: %v", err)), nil
	}
	docs, dropped := ingest.FilterDuplicates(docs)

	out := map[string]any{
		"documents":          docs,
		"duplicates_dropped": dropped,
	}
	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to marshal documents"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
