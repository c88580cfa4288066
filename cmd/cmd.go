// Package cmd provides CLI commands for filesmith.
//
// Commands:
//   - create: materialize a file from content
//   - archive: package the session's files into a zip archive
//   - export: render HTML content to a document
//   - assets: list or fetch published session assets
//   - serve: HTTP API server
//   - mcp: Model Context Protocol server for agent integration
//
// Signal handling and graceful shutdown are implemented for the server
// commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// Execute is the main entry point for the filesmith CLI application.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "create":
		return runCreate(os.Args[2:])
	case "archive":
		return runArchive(os.Args[2:])
	case "export":
		return runExport(os.Args[2:])
	case "assets":
		return runAssets(os.Args[2:])
	case "serve":
		return runServe()
	case "mcp":
		return runMCP()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Filesmith - Artifact materialization for agent sessions")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  filesmith create [flags] [content]   Create a file artifact (content from args or stdin)")
	fmt.Println("  filesmith archive [flags]            Zip the session's files into an archive")
	fmt.Println("  filesmith export [flags] [html]      Render HTML to a document (html from args or stdin)")
	fmt.Println("  filesmith assets [flags]             List or fetch published session assets")
	fmt.Println("  filesmith serve [addr]               Start HTTP API server (default: 127.0.0.1:3500)")
	fmt.Println("  filesmith mcp                        Start MCP server (stdio transport)")
	fmt.Println("  filesmith --version                  Show version information")
	fmt.Println("  filesmith --help                     Show this help")
	fmt.Println()
	fmt.Println("Common Flags:")
	fmt.Println("  --session <uuid>   Session to operate in (generated when omitted)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  FILESMITH_STORE_BACKEND   Asset store backend: fs (default) or postgres")
	fmt.Println("  FILESMITH_STORE_ROOT      Root directory for the fs backend")
	fmt.Println("  FILESMITH_RENDERER_URL    Document rendering service URL")
	fmt.Println("  DATABASE_URL              PostgreSQL URL (implies postgres backend)")
	fmt.Println("  DEBUG                     Enable debug logging")
	fmt.Println()
	fmt.Println("Learn more: https://github.com/filesmith/filesmith")
}
