// Package materialize turns processor-produced content into a durably
// referenceable artifact and publishes it through the session asset store.
//
// A request takes exactly one of three paths, chosen once at the boundary:
// archive (zip the session's assets under a directory scope), export
// (render HTML to a document via the conversion service), or file (encode
// the content directly). Every path produces a data URI, publishes it, and
// reports through an output.Aggregator; partial artifacts are never
// published.
//
// Each call is independent: it owns its aggregator and archive workspace,
// shares no mutable state with other calls, and may run concurrently with
// them.
package materialize

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/filesmith/filesmith/internal/archive"
	"github.com/filesmith/filesmith/internal/asset"
	"github.com/filesmith/filesmith/internal/convert"
	"github.com/filesmith/filesmith/internal/datauri"
	"github.com/filesmith/filesmith/internal/log"
	"github.com/filesmith/filesmith/internal/output"
)

// ErrInvalidRequest is returned before any side effect when the request's
// content/archive combination is illegal.
var ErrInvalidRequest = errors.New("invalid materialize request")

// Human-readable outcome messages carried in Output.Text.
const (
	archiveCreatedText = "Archive created with contents from directory"
	noFilesText        = "No files found to create an archive"
)

// Request is the unified input describing which artifact-production path
// to take.
type Request struct {
	// Content is the file content. Leave empty to archive the session's
	// files instead.
	Content string `json:"content"`

	// Filename names the artifact. A random name is generated when empty.
	Filename string `json:"filename,omitempty"`

	// Directory scopes archives and prefixes file paths.
	Directory string `json:"directory,omitempty"`

	// Archive, when true, packages the session's files under Directory
	// into a zip archive. Mutually exclusive with Content.
	Archive bool `json:"archive"`

	// MimeType overrides mime-type inference from the filename extension.
	MimeType string `json:"mimetype,omitempty"`

	// ExportAs converts Content (HTML) to the given format ("pdf").
	ExportAs string `json:"export_as,omitempty"`
}

// planKind is the discriminated request variant, chosen once by plan().
type planKind int

const (
	planArchive planKind = iota
	planExport
	planFile
)

// plan validates the request and picks its path. Exactly one of archive or
// non-empty content must apply; both or neither is ErrInvalidRequest.
func (r Request) plan() (planKind, error) {
	hasContent := r.Content != ""
	switch {
	case r.Archive && hasContent:
		return 0, fmt.Errorf("%w: both content and archive set", ErrInvalidRequest)
	case !r.Archive && !hasContent:
		return 0, fmt.Errorf("%w: neither content nor archive set", ErrInvalidRequest)
	case r.Archive:
		return planArchive, nil
	case r.ExportAs != "":
		return planExport, nil
	default:
		return planFile, nil
	}
}

// Renderer converts HTML to a document. Satisfied by *convert.Client.
type Renderer interface {
	Render(ctx context.Context, req convert.Request) (*convert.Result, error)
}

// Config wires a Materializer's collaborators.
type Config struct {
	Publisher asset.Publisher
	Lister    asset.Lister
	Renderer  Renderer
	Logger    log.Logger
}

// Materializer orchestrates archive building, document conversion, and
// direct encoding, and publishes the result as a session asset.
type Materializer struct {
	publisher asset.Publisher
	lister    asset.Lister
	renderer  Renderer
	archiver  *archive.Builder
	tracer    trace.Tracer
	logger    log.Logger
}

// New creates a Materializer from its collaborators.
func New(cfg Config) *Materializer {
	return &Materializer{
		publisher: cfg.Publisher,
		lister:    cfg.Lister,
		renderer:  cfg.Renderer,
		archiver:  archive.NewBuilder(cfg.Logger),
		tracer:    otel.Tracer("github.com/filesmith/filesmith/internal/materialize"),
		logger:    cfg.Logger,
	}
}

// Materialize produces and publishes one artifact for the session.
//
// The returned Output references the published object, except in the
// empty-archive case, which reports "no files found" with no ObjRef and
// nothing published.
func (m *Materializer) Materialize(ctx context.Context, sessionID uuid.UUID, req Request) (output.Result, error) {
	kind, err := req.plan()
	if err != nil {
		return output.Result{}, err
	}

	ctx, span := m.tracer.Start(ctx, "materialize",
		trace.WithAttributes(
			attribute.String("session.id", sessionID.String()),
			attribute.Bool("request.archive", req.Archive),
			attribute.String("request.export_as", req.ExportAs),
		))
	defer span.End()

	agg := output.New()

	switch kind {
	case planArchive:
		err = m.materializeArchive(ctx, sessionID, req, agg)
	case planExport:
		err = m.materializeExport(ctx, sessionID, req, agg)
	default:
		err = m.materializeFile(ctx, sessionID, req, agg)
	}
	if err != nil {
		span.RecordError(err)
		return output.Result{}, err
	}

	res, err := agg.Finalize()
	if err != nil {
		return output.Result{}, err
	}
	return res, nil
}

// materializeArchive zips the session's assets under the request's
// directory scope and publishes the archive.
func (m *Materializer) materializeArchive(ctx context.Context, sessionID uuid.UUID, req Request, agg *output.Aggregator) error {
	assets, err := m.lister.List(ctx, sessionID, true, true)
	if err != nil {
		return fmt.Errorf("listing session assets: %w", err)
	}

	entries := make([]archive.Entry, 0, len(assets))
	for _, a := range assets {
		entries = append(entries, archive.Entry{Path: a.Name, Data: a.Data})
	}

	res, err := m.archiver.Build(req.Directory, entries)
	if errors.Is(err, archive.ErrNoEntries) {
		m.logger.Info("no session files in scope, skipping publish",
			"session_id", sessionID, "directory", req.Directory)
		return agg.Write(output.Chunk{
			Directory: output.Ptr(req.Directory),
			Filename:  output.Ptr(defaultFilename(req.Filename)),
			Archive:   output.Ptr(true),
			Text:      output.Ptr(noFilesText),
		})
	}
	if err != nil {
		return fmt.Errorf("building archive: %w", err)
	}

	uri := datauri.Encode(res.Bytes, "application/zip", res.Name, true)
	ref, err := m.publisher.Publish(ctx, sessionID, uri)
	if err != nil {
		return fmt.Errorf("publishing artifact: %w", err)
	}

	return agg.Write(output.Chunk{
		Directory: output.Ptr(""),
		Filename:  output.Ptr(res.Name),
		ObjRef:    output.Ptr(ref),
		Archive:   output.Ptr(true),
		Text:      output.Ptr(archiveCreatedText),
	})
}

// materializeExport renders the request's HTML content into the target
// format and publishes the converted document.
func (m *Materializer) materializeExport(ctx context.Context, sessionID uuid.UUID, req Request, agg *output.Aggregator) error {
	format := convert.Format(req.ExportAs)
	if !format.Valid() {
		return fmt.Errorf("%w: %q", convert.ErrUnsupportedFormat, req.ExportAs)
	}

	filename := req.Filename
	if filename == "" {
		filename = uuid.New().String() + "." + format.Extension()
	}

	result, err := m.renderer.Render(ctx, convert.Request{
		Filename: filename,
		Format:   format,
		HTML:     req.Content,
	})
	if err != nil {
		return fmt.Errorf("rendering document: %w", err)
	}

	uri := datauri.Encode(result.Document, format.MimeType(), filename, true)
	ref, err := m.publisher.Publish(ctx, sessionID, uri)
	if err != nil {
		return fmt.Errorf("publishing artifact: %w", err)
	}

	return agg.Write(output.Chunk{
		Directory: output.Ptr(req.Directory),
		Filename:  output.Ptr(filename),
		ObjRef:    output.Ptr(ref),
		Archive:   output.Ptr(false),
		Text:      output.Ptr(req.Content),
	})
}

// materializeFile encodes the request's content directly as a data URI at
// directory/filename and publishes it.
func (m *Materializer) materializeFile(ctx context.Context, sessionID uuid.UUID, req Request, agg *output.Aggregator) error {
	filename := defaultFilename(req.Filename)

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = datauri.MimeTypeForFilename(filename)
	}

	fullPath := filename
	if req.Directory != "" {
		fullPath = req.Directory + "/" + filename
	}

	uri := datauri.Encode([]byte(req.Content), mimeType, fullPath, true)
	ref, err := m.publisher.Publish(ctx, sessionID, uri)
	if err != nil {
		return fmt.Errorf("publishing artifact: %w", err)
	}

	return agg.Write(output.Chunk{
		Directory: output.Ptr(req.Directory),
		Filename:  output.Ptr(filename),
		ObjRef:    output.Ptr(ref),
		Archive:   output.Ptr(false),
		Text:      output.Ptr(req.Content),
	})
}

// defaultFilename substitutes a random name when the caller gave none.
func defaultFilename(name string) string {
	if name != "" {
		return name
	}
	return uuid.New().String()
}
