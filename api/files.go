package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/filesmith/filesmith/internal/convert"
	"github.com/filesmith/filesmith/internal/datauri"
	"github.com/filesmith/filesmith/internal/log"
	"github.com/filesmith/filesmith/internal/materialize"
)

// SessionHeader carries the session ID. Requests without one get a fresh
// session; its ID is echoed back in the response header either way.
const SessionHeader = "X-Session-ID"

// maxRequestBytes caps the request body size. Content travels inline in
// JSON, so this bounds artifact size as well.
const maxRequestBytes = 10 << 20 // 10 MiB

// FilesHandler handles the artifact materialization endpoint.
type FilesHandler struct {
	materializer *materialize.Materializer
	logger       log.Logger
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(m *materialize.Materializer, logger log.Logger) *FilesHandler {
	return &FilesHandler{materializer: m, logger: logger}
}

// RegisterRoutes registers the files route on the given mux.
func (h *FilesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/files", h.create)
}

// create materializes one artifact from the request body and returns the
// materialization output.
func (h *FilesHandler) create(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session", "X-Session-ID must be a UUID")
		return
	}
	w.Header().Set(SessionHeader, sessionID.String())

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req materialize.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", "request body exceeds limit")
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	res, err := h.materializer.Materialize(r.Context(), sessionID, req)
	if err != nil {
		h.writeMaterializeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// writeMaterializeError maps materialization failures onto HTTP status
// codes: caller mistakes are 4xx, rendering-service failures are gateway
// errors, everything else is 500.
func (h *FilesHandler) writeMaterializeError(w http.ResponseWriter, r *http.Request, err error) {
	var transportErr *convert.TransportError

	switch {
	case errors.Is(err, materialize.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, convert.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "unsupported_format", err.Error())
	case errors.Is(err, datauri.ErrMalformed):
		writeError(w, http.StatusBadRequest, "malformed_data", err.Error())
	case errors.Is(err, convert.ErrTimeout):
		h.logger.Error("render timed out", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusGatewayTimeout, "render_timeout", "document rendering timed out")
	case errors.As(err, &transportErr):
		h.logger.Error("render service unreachable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "render_unavailable", "document rendering service unavailable")
	default:
		h.logger.Error("materialization failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "materialization failed")
	}
}

// sessionFromRequest reads the session header, generating a fresh session
// when absent.
func sessionFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(SessionHeader)
	if raw == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(raw)
}
