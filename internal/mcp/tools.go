package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/filesmith/filesmith/internal/materialize"
)

// CreateFileInput defines the input schema for the create_file tool.
type CreateFileInput struct {
	Content   string `json:"content" jsonschema:"The file content to write"`
	Filename  string `json:"filename,omitempty" jsonschema:"Target filename; a random name is generated when omitted"`
	Directory string `json:"directory,omitempty" jsonschema:"Directory prefix for the file path"`
	MimeType  string `json:"mimetype,omitempty" jsonschema:"MIME type override; inferred from the filename extension when omitted"`
}

// CreateArchiveInput defines the input schema for the create_archive tool.
type CreateArchiveInput struct {
	Directory string `json:"directory,omitempty" jsonschema:"Only session files under this directory are archived; empty includes all"`
}

// ExportPDFInput defines the input schema for the export_pdf tool.
type ExportPDFInput struct {
	Content  string `json:"content" jsonschema:"The HTML content to render"`
	Filename string `json:"filename,omitempty" jsonschema:"Target document filename; a random name is generated when omitted"`
}

// registerTools registers all materialization tools to the MCP server.
// Tools: create_file, create_archive, export_pdf
func (s *Server) registerTools() error {
	createFileSchema, err := jsonschema.For[CreateFileInput](nil)
	if err != nil {
		return fmt.Errorf("schema for create_file: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_file",
		Description: "Create a file from text content and publish it as a session asset.",
		InputSchema: createFileSchema,
	}, s.CreateFile)

	createArchiveSchema, err := jsonschema.For[CreateArchiveInput](nil)
	if err != nil {
		return fmt.Errorf("schema for create_archive: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_archive",
		Description: "Package the session's files under a directory into a zip archive.",
		InputSchema: createArchiveSchema,
	}, s.CreateArchive)

	exportPDFSchema, err := jsonschema.For[ExportPDFInput](nil)
	if err != nil {
		return fmt.Errorf("schema for export_pdf: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "export_pdf",
		Description: "Render HTML content to a PDF document and publish it as a session asset.",
		InputSchema: exportPDFSchema,
	}, s.ExportPDF)

	return nil
}

// CreateFile handles the create_file MCP tool call.
func (s *Server) CreateFile(ctx context.Context, req *mcp.CallToolRequest, input CreateFileInput) (*mcp.CallToolResult, any, error) {
	res, err := s.materializer.Materialize(ctx, s.sessionID, materialize.Request{
		Content:   input.Content,
		Filename:  input.Filename,
		Directory: input.Directory,
		MimeType:  input.MimeType,
	})
	if err != nil {
		return errorToMCP(err), nil, nil
	}
	return dataToMCP(res), nil, nil
}

// CreateArchive handles the create_archive MCP tool call.
func (s *Server) CreateArchive(ctx context.Context, req *mcp.CallToolRequest, input CreateArchiveInput) (*mcp.CallToolResult, any, error) {
	res, err := s.materializer.Materialize(ctx, s.sessionID, materialize.Request{
		Archive:   true,
		Directory: input.Directory,
	})
	if err != nil {
		return errorToMCP(err), nil, nil
	}
	return dataToMCP(res), nil, nil
}

// ExportPDF handles the export_pdf MCP tool call.
func (s *Server) ExportPDF(ctx context.Context, req *mcp.CallToolRequest, input ExportPDFInput) (*mcp.CallToolResult, any, error) {
	res, err := s.materializer.Materialize(ctx, s.sessionID, materialize.Request{
		Content:  input.Content,
		Filename: input.Filename,
		ExportAs: "pdf",
	})
	if err != nil {
		return errorToMCP(err), nil, nil
	}
	return dataToMCP(res), nil, nil
}

// dataToMCP converts arbitrary data to MCP text content via JSON marshaling.
// All data becomes JSON, clients parse it.
func dataToMCP(data any) *mcp.CallToolResult {
	b, err := json.Marshal(data)
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "marshal error"}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

// errorToMCP returns a materialization failure as an error result. Error
// messages carry no paths or internal state, so the text is safe to expose.
func errorToMCP(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
