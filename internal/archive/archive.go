// Package archive packages a scoped subset of named file entries into a
// zip archive.
//
// Each build runs inside a freshly created temporary workspace that is
// exclusively owned for the duration of the call and removed on every exit
// path. Entries whose path falls outside the requested directory scope are
// silently excluded; this is documented policy, not an error (revisit with
// product intent before changing it).
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/filesmith/filesmith/internal/datauri"
	"github.com/filesmith/filesmith/internal/log"
)

// ErrNoEntries is returned by Build when zero entries survive scope
// filtering. Callers must branch on it rather than publish an archive with
// no files.
var ErrNoEntries = errors.New("no entries to archive")

// Entry is one candidate file for the archive. Path is relative,
// forward-slash separated, with no leading slash. Data is the file content
// as a data URI.
type Entry struct {
	Path string
	Data string
}

// Result is a completed archive build.
type Result struct {
	Bytes []byte // zip container
	Name  string // archive filename, derived from the workspace name
}

// Builder assembles zip archives. Safe for concurrent use: each Build call
// owns its own workspace and shares no state.
type Builder struct {
	logger log.Logger
}

// NewBuilder creates a Builder. logger must not be nil.
func NewBuilder(logger log.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build writes every in-scope entry into a temporary workspace, packages
// the workspace into a zip archive preserving entry iteration order, and
// removes the workspace before returning.
//
// When scope is non-empty, only entries whose Path starts with scope are
// included. A data URI decode failure on any included entry aborts the
// whole build; no partial archive is returned. Zero included entries yields
// ErrNoEntries.
func (b *Builder) Build(scope string, entries []Entry) (*Result, error) {
	included := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if scope != "" && !strings.HasPrefix(e.Path, scope) {
			b.logger.Debug("entry outside directory scope, skipping", "path", e.Path, "scope", scope)
			continue
		}
		included = append(included, e)
	}
	if len(included) == 0 {
		return nil, ErrNoEntries
	}

	workspace, err := os.MkdirTemp("", "filesmith-archive-*")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workspace); rmErr != nil {
			b.logger.Warn("removing archive workspace", "workspace", workspace, "error", rmErr)
		}
	}()

	for _, e := range included {
		if err := writeEntry(workspace, e); err != nil {
			return nil, err
		}
	}

	data, err := packWorkspace(workspace, included)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(workspace) + ".zip"
	b.logger.Debug("archive built", "name", name, "entries", len(included), "bytes", len(data))
	return &Result{Bytes: data, Name: name}, nil
}

// writeEntry decodes one entry's data URI and writes the raw bytes at the
// entry's relative path inside the workspace, creating intermediate
// directories as needed.
func writeEntry(workspace string, e Entry) error {
	rel, err := safeRelPath(e.Path)
	if err != nil {
		return err
	}

	d, err := datauri.Parse(e.Data)
	if err != nil {
		return fmt.Errorf("decoding entry %q: %w", e.Path, err)
	}

	dst := filepath.Join(workspace, rel)
	if dir := filepath.Dir(dst); dir != workspace {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating directory for entry %q: %w", e.Path, err)
		}
	}
	if err := os.WriteFile(dst, d.Payload, 0o640); err != nil {
		return fmt.Errorf("writing entry %q: %w", e.Path, err)
	}
	return nil
}

// safeRelPath validates an entry path and converts it to the platform's
// separator. Paths must be relative with no leading slash and must not
// escape the workspace.
func safeRelPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty entry path")
	}
	if strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("entry path %q has leading separator", path)
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("entry path %q escapes workspace", path)
	}
	return clean, nil
}

// packWorkspace zips the workspace contents in entry iteration order so the
// archive layout is deterministic. Entry names are forward-slash separated.
func packWorkspace(workspace string, included []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seen := make(map[string]bool, len(included))
	for _, e := range included {
		rel, err := safeRelPath(e.Path)
		if err != nil {
			return nil, err
		}
		name := filepath.ToSlash(rel)
		if seen[name] {
			continue
		}
		seen[name] = true

		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("adding %q to archive: %w", name, err)
		}
		f, err := os.Open(filepath.Join(workspace, rel))
		if err != nil {
			return nil, fmt.Errorf("reading back entry %q: %w", name, err)
		}
		_, err = io.Copy(w, f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return nil, fmt.Errorf("copying entry %q into archive: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing archive: %w", err)
	}
	return buf.Bytes(), nil
}
