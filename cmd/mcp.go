package cmd

import (
	"fmt"
	"log/slog"

	mcpSdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/filesmith/filesmith/internal/mcp"
)

// runMCP initializes and starts the MCP server on stdio transport.
// Logging goes to stderr; stdout carries JSON-RPC only.
func runMCP() error {
	ctx, cancel := commandContext()
	defer cancel()

	slog.Info("starting MCP server", "version", AppVersion)

	a, err := setup(ctx)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	mcpServer, err := mcp.NewServer(mcp.Config{
		Name:         "filesmith",
		Version:      AppVersion,
		Materializer: a.Materializer,
		Logger:       slog.Default().With("component", "mcp"),
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	slog.Info("MCP server ready",
		"name", "filesmith", "version", AppVersion, "transport", "stdio")

	if err := mcpServer.Run(ctx, &mcpSdk.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	slog.Info("MCP server shut down gracefully")
	return nil
}
