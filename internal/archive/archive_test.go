package archive_test

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesmith/filesmith/internal/archive"
	"github.com/filesmith/filesmith/internal/datauri"
	"github.com/filesmith/filesmith/internal/log"
)

func entry(path, content string) archive.Entry {
	return archive.Entry{
		Path: path,
		Data: datauri.Encode([]byte(content), "text/plain", path, true),
	}
}

// unzip extracts archive bytes into a path → content map.
func unzip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = content
	}
	return files
}

func TestBuild_RoundTrip(t *testing.T) {
	t.Parallel()

	b := archive.NewBuilder(log.NewNop())
	res, err := b.Build("", []archive.Entry{
		entry("readme.md", "# hello"),
		entry("docs/guide.md", "guide"),
		entry("docs/deep/nested.txt", "nested content"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Name)
	assert.Contains(t, res.Name, ".zip")

	files := unzip(t, res.Bytes)
	require.Len(t, files, 3)
	assert.Equal(t, []byte("# hello"), files["readme.md"])
	assert.Equal(t, []byte("guide"), files["docs/guide.md"])
	assert.Equal(t, []byte("nested content"), files["docs/deep/nested.txt"])
}

func TestBuild_ScopeFiltersEntries(t *testing.T) {
	t.Parallel()

	b := archive.NewBuilder(log.NewNop())
	res, err := b.Build("docs", []archive.Entry{
		entry("docs/readme.md", "in scope"),
		entry("other/x.txt", "out of scope"),
	})
	require.NoError(t, err)

	files := unzip(t, res.Bytes)
	require.Len(t, files, 1)
	assert.Equal(t, []byte("in scope"), files["docs/readme.md"])
}

func TestBuild_EmptyScopeIncludesEverything(t *testing.T) {
	t.Parallel()

	b := archive.NewBuilder(log.NewNop())
	res, err := b.Build("", []archive.Entry{
		entry("a.txt", "a"),
		entry("b/c.txt", "c"),
	})
	require.NoError(t, err)
	assert.Len(t, unzip(t, res.Bytes), 2)
}

func TestBuild_NoIncludedEntries(t *testing.T) {
	t.Parallel()

	b := archive.NewBuilder(log.NewNop())

	_, err := b.Build("", nil)
	assert.ErrorIs(t, err, archive.ErrNoEntries)

	// All entries filtered out by scope counts as empty too.
	_, err = b.Build("docs", []archive.Entry{entry("other/x.txt", "x")})
	assert.ErrorIs(t, err, archive.ErrNoEntries)
}

func TestBuild_DecodeErrorAbortsBuild(t *testing.T) {
	t.Parallel()

	b := archive.NewBuilder(log.NewNop())
	_, err := b.Build("", []archive.Entry{
		entry("good.txt", "fine"),
		{Path: "bad.txt", Data: "not a data uri"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, datauri.ErrMalformed)
}

func TestBuild_RejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	b := archive.NewBuilder(log.NewNop())

	tests := []string{
		"/absolute.txt",
		"../outside.txt",
		"docs/../../outside.txt",
	}
	for _, path := range tests {
		_, err := b.Build("", []archive.Entry{entry(path, "x")})
		assert.Error(t, err, "path %q should be rejected", path)
	}
}

func TestBuild_BinaryContent(t *testing.T) {
	t.Parallel()

	payload := []byte{0x00, 0x01, 0xfe, 0xff, 0x80}
	b := archive.NewBuilder(log.NewNop())
	res, err := b.Build("", []archive.Entry{{
		Path: "bin/blob",
		Data: datauri.Encode(payload, "application/octet-stream", "blob", true),
	}})
	require.NoError(t, err)

	files := unzip(t, res.Bytes)
	assert.Equal(t, payload, files["bin/blob"])
}

func TestBuild_DeterministicOrder(t *testing.T) {
	t.Parallel()

	entries := []archive.Entry{
		entry("z.txt", "z"),
		entry("a.txt", "a"),
		entry("m/m.txt", "m"),
	}

	b := archive.NewBuilder(log.NewNop())
	res, err := b.Build("", entries)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(res.Bytes), int64(len(res.Bytes)))
	require.NoError(t, err)

	var order []string
	for _, f := range zr.File {
		order = append(order, f.Name)
	}
	// Iteration order of the input, not lexicographic order.
	assert.Equal(t, []string{"z.txt", "a.txt", "m/m.txt"}, order)
}
