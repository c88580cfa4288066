// Package asset publishes and lists session-scoped assets.
//
// An asset is a published data URI owned by a session. Publishing returns
// an opaque objref reference; once published, the store owns the object
// and callers hold only the reference.
//
// Two backends are provided: FSStore (flat files under a root directory,
// suitable for CLI and MCP use) and PostgresStore (an assets table,
// suitable for the HTTP server).
package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the referenced asset does not exist.
	ErrNotFound = errors.New("asset not found")

	// ErrInvalidRef is returned when a reference is not a valid objref.
	ErrInvalidRef = errors.New("invalid asset reference")
)

// RefPrefix is the scheme prefix of published asset references.
const RefPrefix = "objref://sessionfiles/"

// NewRef builds an objref reference for an asset id.
func NewRef(id uuid.UUID) string {
	return RefPrefix + id.String()
}

// ParseRef extracts the asset id from an objref reference. Accepts a bare
// id as well, so HTTP path segments work without the scheme prefix.
func ParseRef(ref string) (uuid.UUID, error) {
	raw := strings.TrimPrefix(ref, RefPrefix)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return id, nil
}

// Asset is one entry in a session's asset listing. Data holds the full
// data URI; Name is the filename declared in the URI's name segment.
type Asset struct {
	Name string `json:"name,omitempty"`
	Data string `json:"data,omitempty"`
}

// Publisher publishes a data URI and returns its opaque reference.
type Publisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, dataURI string) (string, error)
}

// Lister returns a session's assets in publication order. includeName and
// includeData control which fields of each Asset are populated.
type Lister interface {
	List(ctx context.Context, sessionID uuid.UUID, includeName, includeData bool) ([]Asset, error)
}

// Store is the full asset storage surface.
type Store interface {
	Publisher
	Lister

	// Get retrieves a published asset by reference.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, sessionID uuid.UUID, ref string) (*Asset, error)

	// Delete removes a published asset by reference.
	// Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, sessionID uuid.UUID, ref string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close()
}
