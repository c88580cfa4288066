package materialize_test

import (
	"context"
	"errors"
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

// fakeStore records published data URIs and serves a fixed asset listing.
type fakeStore struct {
	assets     []asset.Asset
	published  []string
	publishErr error
	listErr    error
}

func (f *fakeStore) Publish(_ context.Context, _ uuid.UUID, dataURI string) (string, error) {
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.published = append(f.published, dataURI)
	return asset.NewRef(uuid.New()), nil
}

func (f *fakeStore) List(_ context.Context, _ uuid.UUID, _, _ bool) ([]asset.Asset, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.assets, nil
}

// fakeRenderer returns a fixed document and records invocations.
type fakeRenderer struct {
	document []byte
	err      error
	calls    []convert.Request
}

func (f *fakeRenderer) Render(_ context.Context, req convert.Request) (*convert.Result, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &convert.Result{Document: f.document, Files: [][]byte{f.document}}, nil
}

func newMaterializer(store *fakeStore, renderer *fakeRenderer) *materialize.Materializer {
	return materialize.New(materialize.Config{
		Publisher: store,
		Lister:    store,
		Renderer:  renderer,
		Logger:    log.NewNop(),
	})
}

func TestMaterialize_InvalidRequests(t *testing.T) {
	t.Parallel()

	m := newMaterializer(&fakeStore{}, &fakeRenderer{})
	ctx := context.Background()
	sid := uuid.New()

	_, err := m.Materialize(ctx, sid, materialize.Request{Content: "x", Archive: true})
	assert.ErrorIs(t, err, materialize.ErrInvalidRequest)

	_, err = m.Materialize(ctx, sid, materialize.Request{})
	assert.ErrorIs(t, err, materialize.ErrInvalidRequest)
}

func TestMaterialize_File(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newMaterializer(store, &fakeRenderer{})

	res, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{
		Content:  "hello",
		Filename: "a.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, "a.txt", res.Filename)
	assert.Empty(t, res.Directory)
	assert.False(t, res.Archive)
	assert.Equal(t, "hello", res.Text)
	assert.Contains(t, res.ObjRef, asset.RefPrefix)

	require.Len(t, store.published, 1)
	d, err := datauri.Parse(store.published[0])
	require.NoError(t, err)
	assert.Equal(t, "text/plain", d.MimeType)
	assert.Equal(t, "a.txt", d.Filename)
	assert.Equal(t, []byte("hello"), d.Payload)
}

func TestMaterialize_FileInDirectory(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newMaterializer(store, &fakeRenderer{})

	res, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{
		Content:   "body",
		Filename:  "page.html",
		Directory: "site",
	})
	require.NoError(t, err)
	assert.Equal(t, "site", res.Directory)

	d, err := datauri.Parse(store.published[0])
	require.NoError(t, err)
	assert.Equal(t, "site/page.html", d.Filename)
	assert.Equal(t, "text/html", d.MimeType)
}

func TestMaterialize_FileGeneratedFilename(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newMaterializer(store, &fakeRenderer{})

	res, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{Content: "x"})
	require.NoError(t, err)

	_, err = uuid.Parse(res.Filename)
	assert.NoError(t, err, "generated filename should be a UUID")

	d, err := datauri.Parse(store.published[0])
	require.NoError(t, err)
	assert.Equal(t, datauri.DefaultMimeType, d.MimeType)
}

func TestMaterialize_FileExplicitMimeType(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newMaterializer(store, &fakeRenderer{})

	_, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{
		Content:  "x",
		Filename: "a.txt",
		MimeType: "text/x-special",
	})
	require.NoError(t, err)

	d, err := datauri.Parse(store.published[0])
	require.NoError(t, err)
	assert.Equal(t, "text/x-special", d.MimeType)
}

func TestMaterialize_ArchiveScoped(t *testing.T) {
	t.Parallel()

	store := &fakeStore{assets: []asset.Asset{
		{Name: "docs/readme.md", Data: datauri.Encode([]byte("# readme"), "text/markdown", "docs/readme.md", true)},
		{Name: "other/x.txt", Data: datauri.Encode([]byte("x"), "text/plain", "other/x.txt", true)},
	}}
	m := newMaterializer(store, &fakeRenderer{})

	res, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{
		Archive:   true,
		Directory: "docs",
	})
	require.NoError(t, err)

	assert.True(t, res.Archive)
	assert.Equal(t, "Archive created with contents from directory", res.Text)
	assert.NotEmpty(t, res.ObjRef)
	assert.Contains(t, res.Filename, ".zip")

	require.Len(t, store.published, 1)
	d, err := datauri.Parse(store.published[0])
	require.NoError(t, err)
	assert.Equal(t, "application/zip", d.MimeType)
	assert.NotEmpty(t, d.Payload)
}

func TestMaterialize_ArchiveNoFiles(t *testing.T) {
	t.Parallel()

	store := &fakeStore{assets: []asset.Asset{
		{Name: "other/x.txt", Data: datauri.Encode([]byte("x"), "text/plain", "other/x.txt", true)},
	}}
	m := newMaterializer(store, &fakeRenderer{})

	res, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{
		Archive:   true,
		Directory: "docs",
	})
	require.NoError(t, err)

	assert.True(t, res.Archive)
	assert.Equal(t, "No files found to create an archive", res.Text)
	assert.Empty(t, res.ObjRef)
	assert.Equal(t, "docs", res.Directory)
	assert.Empty(t, store.published, "nothing may be published for an empty archive")
}

func TestMaterialize_ArchiveDecodeErrorAborts(t *testing.T) {
	t.Parallel()

	store := &fakeStore{assets: []asset.Asset{
		{Name: "a.txt", Data: "corrupted"},
	}}
	m := newMaterializer(store, &fakeRenderer{})

	_, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{Archive: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, datauri.ErrMalformed)
	assert.Empty(t, store.published)
}

func TestMaterialize_ExportPDF(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	renderer := &fakeRenderer{document: []byte("%PDF-1.4")}
	m := newMaterializer(store, renderer)

	res, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{
		Content:  "<h1>Hi</h1>",
		ExportAs: "pdf",
	})
	require.NoError(t, err)

	require.Len(t, renderer.calls, 1)
	assert.Equal(t, "<h1>Hi</h1>", renderer.calls[0].HTML)
	assert.Equal(t, convert.FormatPDF, renderer.calls[0].Format)

	assert.Contains(t, res.Filename, ".pdf")
	assert.False(t, res.Archive)

	d, err := datauri.Parse(store.published[0])
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", d.MimeType)
	assert.Equal(t, []byte("%PDF-1.4"), d.Payload)
}

func TestMaterialize_ExportKeepsGivenFilename(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	renderer := &fakeRenderer{document: []byte("doc")}
	m := newMaterializer(store, renderer)

	res, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{
		Content:  "<p>x</p>",
		Filename: "report.pdf",
		ExportAs: "pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", res.Filename)
	assert.Equal(t, "report.pdf", renderer.calls[0].Filename)
}

func TestMaterialize_ExportUnsupportedFormat(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	renderer := &fakeRenderer{document: []byte("doc")}
	m := newMaterializer(store, renderer)

	_, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{
		Content:  "<p>x</p>",
		ExportAs: "docx",
	})
	assert.ErrorIs(t, err, convert.ErrUnsupportedFormat)
	assert.Empty(t, renderer.calls, "renderer must not be invoked for unsupported formats")
	assert.Empty(t, store.published)
}

func TestMaterialize_PublishErrorSurfaced(t *testing.T) {
	t.Parallel()

	publishErr := errors.New("backend unavailable")
	store := &fakeStore{publishErr: publishErr}
	m := newMaterializer(store, &fakeRenderer{})

	_, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{
		Content:  "x",
		Filename: "a.txt",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, publishErr)
	assert.Contains(t, err.Error(), "publishing artifact")
}

func TestMaterialize_RenderErrorNothingPublished(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	renderer := &fakeRenderer{err: convert.ErrTimeout}
	m := newMaterializer(store, renderer)

	_, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{
		Content:  "<p>x</p>",
		ExportAs: "pdf",
	})
	assert.ErrorIs(t, err, convert.ErrTimeout)
	assert.Empty(t, store.published)
}

func TestMaterialize_ListErrorSurfaced(t *testing.T) {
	t.Parallel()

	listErr := errors.New("listing failed")
	store := &fakeStore{listErr: listErr}
	m := newMaterializer(store, &fakeRenderer{})

	_, err := m.Materialize(context.Background(), uuid.New(), materialize.Request{Archive: true})
	assert.ErrorIs(t, err, listErr)
}
