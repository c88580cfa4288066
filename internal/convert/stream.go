package convert

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxScanTokenSize bounds a single SSE line; rendered documents arrive
// base64-encoded on one data line.
const maxScanTokenSize = 32 * 1024 * 1024

// ResponseStream is the receive half of one render call: an ordered
// sequence of Response messages ending when the service closes the
// stream. It is independent of the SSE transport underneath; callers see
// only Next/Current/Err/Close.
//
// Usage follows the bufio.Scanner convention:
//
//	for stream.Next() {
//	    resp := stream.Current()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
type ResponseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	curr    Response
	err     error
}

func newResponseStream(body io.ReadCloser) *ResponseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)
	return &ResponseStream{body: body, scanner: scanner}
}

// Next advances to the next response message. It returns false when the
// service closes the stream or an error occurs; check Err afterwards.
func (s *ResponseStream) Next() bool {
	if s.err != nil {
		return false
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") || strings.HasPrefix(line, "event:") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return false
		}

		var resp Response
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			s.err = fmt.Errorf("decoding response message: %w", err)
			return false
		}
		s.curr = resp
		return true
	}
	s.err = s.scanner.Err()
	return false
}

// Current returns the response read by the last successful Next.
func (s *ResponseStream) Current() Response {
	return s.curr
}

// Err returns the error that terminated the stream, if any. A clean close
// by the service returns nil.
func (s *ResponseStream) Err() error {
	return s.err
}

// Close releases the underlying transport. Safe to call after the stream
// is exhausted.
func (s *ResponseStream) Close() error {
	return s.body.Close()
}
