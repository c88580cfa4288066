// Package convert streams HTML to an external rendering service and
// returns the converted document bytes.
//
// The protocol is send-one/half-close/receive-stream: the client posts
// exactly one render request, then consumes a server-sent-event stream of
// responses until the service closes it. Normally the stream carries
// exactly one response with one or more byte blobs; the first blob of the
// first response is the canonical document, and every blob is surfaced in
// the Result so nothing is silently discarded.
//
// The client performs no retries. Cancellation and deadlines are the
// caller's responsibility via the context.
package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/filesmith/filesmith/internal/log"
)

// Format is a supported export format.
type Format string

// FormatPDF is the only export format defined in the initial version.
const FormatPDF Format = "pdf"

var (
	// ErrUnsupportedFormat is returned before any network I/O when the
	// requested format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrTimeout is returned when the caller-supplied deadline expires
	// before the response stream completes.
	ErrTimeout = errors.New("conversion timed out")
)

// Valid reports whether the format is supported.
func (f Format) Valid() bool {
	return f == FormatPDF
}

// MimeType returns the mime type of documents in this format.
func (f Format) MimeType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	default:
		return ""
	}
}

// Extension returns the filename extension for this format, without dot.
func (f Format) Extension() string {
	return string(f)
}

// TransportError wraps a network or protocol failure talking to the
// rendering service. It is surfaced verbatim and never retried internally.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("conversion transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Request describes one document conversion.
type Request struct {
	Filename string
	Format   Format
	HTML     string
}

// File is one byte blob in a render response.
type File struct {
	Data []byte `json:"data"`
}

// Response is one message on the render response stream.
type Response struct {
	Files []File `json:"files"`
}

// Result is the outcome of a completed conversion. Document is the first
// blob of the first response; Files holds every blob the service sent, in
// stream order, Document included.
type Result struct {
	Document []byte
	Files    [][]byte
}

// Client talks to a rendering service over streaming HTTP. The service
// base URL is injected at construction, not read from ambient state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// NewClient creates a conversion client for the service at baseURL.
// httpClient may be nil, in which case http.DefaultClient is used.
func NewClient(baseURL string, httpClient *http.Client, logger log.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Render converts req.HTML into the requested format.
//
// The format is validated before any network call; anything but FormatPDF
// fails with ErrUnsupportedFormat. Deadline expiry maps to ErrTimeout,
// other network failures to *TransportError.
func (c *Client) Render(ctx context.Context, req Request) (*Result, error) {
	if !req.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
	}

	stream, err := c.open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			c.logger.Warn("closing render stream", "error", closeErr)
		}
	}()

	var result Result
	for stream.Next() {
		resp := stream.Current()
		for _, f := range resp.Files {
			if result.Document == nil {
				result.Document = f.Data
			}
			result.Files = append(result.Files, f.Data)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, c.classify("reading response stream", err)
	}
	if result.Document == nil {
		return nil, &TransportError{Op: "reading response stream", Err: errors.New("service closed stream without a document")}
	}

	c.logger.Debug("document rendered",
		"filename", req.Filename,
		"format", req.Format,
		"blobs", len(result.Files),
		"bytes", len(result.Document))
	return &result, nil
}

// wireRequest is the create message on the wire. The format travels as the
// service's mime-type enum identifier (e.g. "PDF").
type wireRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	HTML     string `json:"html"`
}

// open sends the single request and half-closes the send direction,
// returning the response stream.
func (c *Client) open(ctx context.Context, req Request) (*ResponseStream, error) {
	body, err := json.Marshal(wireRequest{
		Filename: req.Filename,
		MimeType: strings.ToUpper(string(req.Format)),
		HTML:     req.HTML,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding render request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classify("opening stream", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, &TransportError{
			Op:  "opening stream",
			Err: fmt.Errorf("service returned %s: %s", resp.Status, bytes.TrimSpace(msg)),
		}
	}

	return newResponseStream(resp.Body), nil
}

// classify maps a raw error to the package taxonomy: deadline expiry is
// ErrTimeout, everything else a *TransportError.
func (c *Client) classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return &TransportError{Op: op, Err: err}
}
