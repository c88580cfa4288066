package api

import (
	"errors"
	"net/http"

	"github.com/filesmith/filesmith/internal/asset"
	"github.com/filesmith/filesmith/internal/log"
)

// AssetsHandler handles asset listing and retrieval endpoints.
type AssetsHandler struct {
	store  asset.Store
	logger log.Logger
}

// NewAssetsHandler creates a new assets handler.
func NewAssetsHandler(store asset.Store, logger log.Logger) *AssetsHandler {
	return &AssetsHandler{store: store, logger: logger}
}

// RegisterRoutes registers asset routes on the given mux.
func (h *AssetsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/assets", h.list)
	mux.HandleFunc("GET /api/assets/{ref}", h.get)
}

// list returns the session's assets in publication order.
//
// Query parameters include_name and include_data (default true) control
// which fields are populated; listing names without payloads keeps
// responses small for sessions holding large artifacts.
func (h *AssetsHandler) list(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session", "X-Session-ID must be a UUID")
		return
	}
	w.Header().Set(SessionHeader, sessionID.String())

	includeName := queryFlag(r, "include_name", true)
	includeData := queryFlag(r, "include_data", true)

	assets, err := h.store.List(r.Context(), sessionID, includeName, includeData)
	if err != nil {
		h.logger.Error("listing assets failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "listing assets failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

// get retrieves one published asset by reference. The path segment may be
// a full objref or a bare asset ID.
func (h *AssetsHandler) get(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session", "X-Session-ID must be a UUID")
		return
	}
	w.Header().Set(SessionHeader, sessionID.String())

	ref := r.PathValue("ref")
	a, err := h.store.Get(r.Context(), sessionID, ref)
	switch {
	case errors.Is(err, asset.ErrInvalidRef):
		writeError(w, http.StatusBadRequest, "invalid_ref", err.Error())
		return
	case errors.Is(err, asset.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "asset not found")
		return
	case err != nil:
		h.logger.Error("fetching asset failed", "session_id", sessionID, "ref", ref, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "fetching asset failed")
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// queryFlag reads a boolean query parameter with a default for absence.
// Only the literal "false" disables a default-true flag.
func queryFlag(r *http.Request, name string, def bool) bool {
	switch r.URL.Query().Get(name) {
	case "":
		return def
	case "false", "0":
		return false
	default:
		return true
	}
}
