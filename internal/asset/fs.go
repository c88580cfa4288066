package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/filesmith/filesmith/internal/datauri"
	"github.com/filesmith/filesmith/internal/log"
)

// FSStore keeps published assets as flat files under a root directory, one
// subdirectory per session, one file per asset named by its id. The file
// content is the asset's data URI verbatim.
//
// The root may be shared by several processes (CLI one-shots, an MCP
// server, a development HTTP server), so writes take a file lock on the
// store root.
type FSStore struct {
	root   string
	lock   *flock.Flock
	logger log.Logger
}

// NewFSStore opens (creating if needed) a filesystem store rooted at root.
func NewFSStore(root string, logger log.Logger) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating store root: %w", err)
	}
	return &FSStore{
		root:   root,
		lock:   flock.New(filepath.Join(root, ".lock")),
		logger: logger,
	}, nil
}

// Publish writes the data URI under the session directory and returns its
// objref reference.
func (s *FSStore) Publish(ctx context.Context, sessionID uuid.UUID, dataURI string) (string, error) {
	if _, err := datauri.Parse(dataURI); err != nil {
		return "", fmt.Errorf("publishing asset: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return "", fmt.Errorf("locking store: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("unlocking store", "error", err)
		}
	}()

	dir := filepath.Join(s.root, sessionID.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating session directory: %w", err)
	}

	id := uuid.New()
	if err := os.WriteFile(filepath.Join(dir, id.String()), []byte(dataURI), 0o640); err != nil {
		return "", fmt.Errorf("writing asset: %w", err)
	}

	s.logger.Debug("asset published", "session_id", sessionID, "ref", NewRef(id))
	return NewRef(id), nil
}

// List returns the session's assets ordered by publication time.
func (s *FSStore) List(ctx context.Context, sessionID uuid.UUID, includeName, includeData bool) ([]Asset, error) {
	dir := filepath.Join(s.root, sessionID.String())
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing session assets: %w", err)
	}

	type fileInfo struct {
		name    string
		modTime time.Time
	}
	infos := make([]fileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("reading asset info: %w", err)
		}
		infos = append(infos, fileInfo{name: e.Name(), modTime: info.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].modTime.Equal(infos[j].modTime) {
			return infos[i].modTime.Before(infos[j].modTime)
		}
		return infos[i].name < infos[j].name
	})

	assets := make([]Asset, 0, len(infos))
	for _, fi := range infos {
		content, err := os.ReadFile(filepath.Join(dir, fi.name)) // #nosec G304 -- path built from store root and dir listing
		if err != nil {
			return nil, fmt.Errorf("reading asset %s: %w", fi.name, err)
		}
		a, err := assetFromURI(string(content), includeName, includeData)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", fi.name, err)
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// Get retrieves one asset by reference.
func (s *FSStore) Get(ctx context.Context, sessionID uuid.UUID, ref string) (*Asset, error) {
	id, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filepath.Join(s.root, sessionID.String(), id.String())) // #nosec G304 -- path components are validated UUIDs
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading asset %s: %w", ref, err)
	}

	a, err := assetFromURI(string(content), true, true)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", ref, err)
	}
	return &a, nil
}

// Delete removes one asset by reference.
func (s *FSStore) Delete(ctx context.Context, sessionID uuid.UUID, ref string) error {
	id, err := ParseRef(ref)
	if err != nil {
		return err
	}

	path := filepath.Join(s.root, sessionID.String(), id.String())
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting asset %s: %w", ref, err)
	}
	s.logger.Debug("asset deleted", "session_id", sessionID, "ref", ref)
	return nil
}

// Ping verifies the store root is accessible.
func (s *FSStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.root); err != nil {
		return fmt.Errorf("store root inaccessible: %w", err)
	}
	return nil
}

// Close is a no-op for the filesystem backend.
func (s *FSStore) Close() {}

// assetFromURI builds a listing entry from a stored data URI, populating
// only the requested fields.
func assetFromURI(uri string, includeName, includeData bool) (Asset, error) {
	var a Asset
	if includeName {
		d, err := datauri.Parse(uri)
		if err != nil {
			return Asset{}, err
		}
		a.Name = d.Filename
	}
	if includeData {
		a.Data = uri
	}
	return a, nil
}
