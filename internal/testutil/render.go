package testutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RenderRequest mirrors the rendering service's create message so tests can
// assert on what the client sent without importing the client package.
type RenderRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	HTML     string `json:"html"`
}

// RenderService is an in-process stub of the external rendering service.
// It answers POST /v1/render with a server-sent-event stream of configured
// responses and records every request it receives.
type RenderService struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RenderRequest

	// Blobs are emitted as a single response message carrying all of them.
	// Configure before the first request.
	Blobs [][]byte
}

// NewRenderService starts a stub rendering service that responds with the
// given byte blobs. The server is shut down automatically when the test
// ends.
func NewRenderService(t *testing.T, blobs ...[]byte) *RenderService {
	t.Helper()

	rs := &RenderService{Blobs: blobs}
	rs.Server = httptest.NewServer(http.HandlerFunc(rs.handle))
	t.Cleanup(rs.Server.Close)
	return rs
}

func (rs *RenderService) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/v1/render" {
		http.NotFound(w, r)
		return
	}

	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	rs.mu.Lock()
	rs.requests = append(rs.requests, req)
	blobs := rs.Blobs
	rs.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)

	files := make([]map[string]string, 0, len(blobs))
	for _, b := range blobs {
		files = append(files, map[string]string{"data": base64.StdEncoding.EncodeToString(b)})
	}
	payload, _ := json.Marshal(map[string]any{"files": files})
	fmt.Fprintf(w, "data: %s\n\n", payload)
	fmt.Fprint(w, "data: [DONE]\n\n")
}

// Requests returns a copy of every render request received so far.
func (rs *RenderService) Requests() []RenderRequest {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]RenderRequest(nil), rs.requests...)
}

// CallCount returns how many render requests the stub has served.
func (rs *RenderService) CallCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.requests)
}
