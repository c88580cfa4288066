// Package mcp exposes artifact materialization as Model Context Protocol
// tools over the official MCP Go SDK.
//
// Three tools are registered: create_file, create_archive and export_pdf.
// Each maps directly onto one materialization path; input schemas are
// inferred from Go structs, and results are returned to the client as JSON
// text content.
//
// One MCP server serves one session: assets created by its tools share a
// session ID generated at construction, so create_archive sees exactly the
// files created through the same server.
package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/filesmith/filesmith/internal/log"
	"github.com/filesmith/filesmith/internal/materialize"
	"github.com/filesmith/filesmith/internal/output"
)

// Materializer produces and publishes one artifact for a session.
// Satisfied by *materialize.Materializer.
type Materializer interface {
	Materialize(ctx context.Context, sessionID uuid.UUID, req materialize.Request) (output.Result, error)
}

// Server wraps the MCP SDK server and the artifact materializer.
type Server struct {
	mcpServer    *mcp.Server
	materializer Materializer
	sessionID    uuid.UUID
	logger       log.Logger
	name         string
	version      string
}

// Config holds MCP server configuration.
type Config struct {
	Name         string
	Version      string
	Materializer Materializer
	Logger       log.Logger
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Materializer == nil {
		return nil, fmt.Errorf("materializer is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer:    mcpServer,
		materializer: cfg.Materializer,
		sessionID:    uuid.New(),
		logger:       cfg.Logger,
		name:         cfg.Name,
		version:      cfg.Version,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	return s, nil
}

// SessionID returns the asset session served by this server.
func (s *Server) SessionID() uuid.UUID {
	return s.sessionID
}

// Run starts the MCP server on the given transport.
// This is a blocking call that handles all MCP protocol communication.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("mcp server starting",
		"name", s.name, "version", s.version, "session_id", s.sessionID)
	return s.mcpServer.Run(ctx, transport)
}
