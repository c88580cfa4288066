package api

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesmith/filesmith/internal/asset"
	"github.com/filesmith/filesmith/internal/convert"
	"github.com/filesmith/filesmith/internal/datauri"
	"github.com/filesmith/filesmith/internal/log"
	"github.com/filesmith/filesmith/internal/materialize"
)

// memStore is an in-memory asset.Store for handler tests.
type memStore struct {
	mu      sync.Mutex
	assets  map[uuid.UUID][]storedAsset // per session, publication order
	pingErr error
	pubErr  error
	listErr error
}

type storedAsset struct {
	id  uuid.UUID
	uri string
}

func newMemStore() *memStore {
	return &memStore{assets: make(map[uuid.UUID][]storedAsset)}
}

func (s *memStore) Publish(_ context.Context, sessionID uuid.UUID, dataURI string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pubErr != nil {
		return "", s.pubErr
	}
	if _, err := datauri.Parse(dataURI); err != nil {
		return "", err
	}
	id := uuid.New()
	s.assets[sessionID] = append(s.assets[sessionID], storedAsset{id: id, uri: dataURI})
	return asset.NewRef(id), nil
}

func (s *memStore) List(_ context.Context, sessionID uuid.UUID, includeName, includeData bool) ([]asset.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []asset.Asset
	for _, sa := range s.assets[sessionID] {
		var a asset.Asset
		if includeName {
			parsed, err := datauri.Parse(sa.uri)
			if err != nil {
				return nil, err
			}
			a.Name = parsed.Filename
		}
		if includeData {
			a.Data = sa.uri
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, sessionID uuid.UUID, ref string) (*asset.Asset, error) {
	id, err := asset.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sa := range s.assets[sessionID] {
		if sa.id == id {
			parsed, err := datauri.Parse(sa.uri)
			if err != nil {
				return nil, err
			}
			return &asset.Asset{Name: parsed.Filename, Data: sa.uri}, nil
		}
	}
	return nil, asset.ErrNotFound
}

func (s *memStore) Delete(_ context.Context, sessionID uuid.UUID, ref string) error {
	id, err := asset.ParseRef(ref)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.assets[sessionID]
	for i, sa := range list {
		if sa.id == id {
			s.assets[sessionID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return asset.ErrNotFound
}

func (s *memStore) Ping(context.Context) error { return s.pingErr }
func (s *memStore) Close()                     {}

// stubRenderer returns canned bytes or a canned error.
type stubRenderer struct {
	document []byte
	err      error
}

func (r *stubRenderer) Render(context.Context, convert.Request) (*convert.Result, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &convert.Result{Document: r.document, Files: [][]byte{r.document}}, nil
}

// newTestServer builds a Server over an in-memory store and stub renderer.
func newTestServer(t *testing.T, store *memStore, renderer materialize.Renderer) *httptest.Server {
	t.Helper()

	m := materialize.New(materialize.Config{
		Publisher: store,
		Lister:    store,
		Renderer:  renderer,
		Logger:    log.NewNop(),
	})

	srv, err := NewServer(Config{
		Logger:       log.NewNop(),
		Store:        store,
		Materializer: m,
		RateRPS:      1000,
		RateBurst:    1000,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestNewServer_Validation(t *testing.T) {
	t.Parallel()

	m := materialize.New(materialize.Config{
		Publisher: newMemStore(),
		Lister:    newMemStore(),
		Logger:    log.NewNop(),
	})

	t.Run("missing store", func(t *testing.T) {
		t.Parallel()
		_, err := NewServer(Config{Materializer: m})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store")
	})

	t.Run("missing materializer", func(t *testing.T) {
		t.Parallel()
		_, err := NewServer(Config{Store: newMemStore()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "materializer")
	})

	t.Run("nil logger defaults", func(t *testing.T) {
		t.Parallel()
		srv, err := NewServer(Config{Store: newMemStore(), Materializer: m})
		require.NoError(t, err)
		require.NotNil(t, srv.Handler())
	})
}

func TestServer_Run_GracefulShutdown(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := materialize.New(materialize.Config{
		Publisher: store,
		Lister:    store,
		Logger:    log.NewNop(),
	})
	srv, err := NewServer(Config{Store: store, Materializer: m, Logger: log.NewNop()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, "127.0.0.1:0")
	}()

	cancel()
	require.NoError(t, <-done)
}

func TestServer_Run_AddrInUse(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := materialize.New(materialize.Config{
		Publisher: store,
		Lister:    store,
		Logger:    log.NewNop(),
	})
	srv, err := NewServer(Config{Store: store, Materializer: m, Logger: log.NewNop()})
	require.NoError(t, err)

	err = srv.Run(context.Background(), "256.256.256.256:99999")
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
