package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesmith/filesmith/internal/output"
)

// captureStdout runs fn with stdout redirected to a buffer.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestRunHelp(t *testing.T) {
	out := captureStdout(t, runHelp)

	for _, expected := range []string{
		"filesmith create",
		"filesmith archive",
		"filesmith export",
		"filesmith assets",
		"filesmith serve",
		"filesmith mcp",
		"FILESMITH_RENDERER_URL",
	} {
		assert.Contains(t, out, expected)
	}
}

func TestRunVersion(t *testing.T) {
	out := captureStdout(t, runVersion)

	assert.Contains(t, out, "Filesmith")
	assert.Contains(t, out, AppVersion)
	assert.Contains(t, out, "Build Time:")
	assert.Contains(t, out, "Git Commit:")
}

func TestParseSession(t *testing.T) {
	t.Parallel()

	t.Run("empty generates", func(t *testing.T) {
		t.Parallel()
		id, err := parseSession("")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
	})

	t.Run("valid UUID round trips", func(t *testing.T) {
		t.Parallel()
		want := uuid.New()
		got, err := parseSession(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		t.Parallel()
		_, err := parseSession("not-a-uuid")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--session")
	})
}

func TestReadContent_Args(t *testing.T) {
	t.Parallel()

	content, err := readContent([]string{"hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", content)
}

func TestReadContent_Stdin(t *testing.T) {
	oldStdin := os.Stdin
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = oldStdin })

	_, err = w.WriteString("<h1>from stdin</h1>")
	require.NoError(t, err)
	_ = w.Close()

	content, err := readContent(nil)
	require.NoError(t, err)
	assert.Equal(t, "<h1>from stdin</h1>", content)
}

func TestPrintResult(t *testing.T) {
	session := uuid.New()
	res := output.Result{
		Filename: "notes.txt",
		ObjRef:   "objref://sessionfiles/" + uuid.New().String(),
		Text:     "hello",
	}

	out := captureStdout(t, func() {
		require.NoError(t, printResult(session, res))
	})

	assert.Contains(t, out, session.String())
	assert.Contains(t, out, `"filename": "notes.txt"`)
	assert.Contains(t, out, "objref://sessionfiles/")
}

func TestExecute_UnknownCommand(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"filesmith", "frobnicate"}
	t.Cleanup(func() { os.Args = oldArgs })

	err := Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown command"))
}

func TestExecute_NoArgsShowsHelp(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"filesmith"}
	t.Cleanup(func() { os.Args = oldArgs })

	out := captureStdout(t, func() {
		require.NoError(t, Execute())
	})
	assert.Contains(t, out, "Usage:")
}
