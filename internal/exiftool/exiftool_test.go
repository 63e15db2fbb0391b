package exiftool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTool stands in for the real binary so the process plumbing can be
// exercised hermetically.
func stubTool(t *testing.T, script string) *Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exiftool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return &Client{Path: path}
}

func TestVersion(t *testing.T) {
	c := stubTool(t, `echo 12.30`)
	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12.30", v)
}

func TestMissingBinary(t *testing.T) {
	c := &Client{Path: "/nonexistent/exiftool"}
	_, err := c.Version(context.Background())
	assert.Error(t, err)
}

func TestReadCollectsStderrWarnings(t *testing.T) {
	c := stubTool(t, `
echo 'Warning: Bad IFD0 directory' >&2
echo '[{"SourceFile":"/tmp/example.jpg","Orientation":6}]'`)
	rec, err := c.Read(context.Background(), "/tmp/example.jpg", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(6), rec.Tags["Orientation"])
	assert.Equal(t, []string{"Warning: Bad IFD0 directory"}, rec.Errors)
}

func TestWrite(t *testing.T) {
	c := stubTool(t, `echo '1 image files updated'`)
	err := c.Write(context.Background(), "/tmp/example.jpg", map[string]any{"Artist": "whoever"})
	assert.NoError(t, err)
}

func TestWriteWarningFails(t *testing.T) {
	c := stubTool(t, `
echo "Warning: Sorry, Foo doesn't exist or isn't writable" >&2
echo '1 image files updated'`)
	err := c.Write(context.Background(), "/tmp/example.jpg", map[string]any{"Foo": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doesn't exist or isn't writable")
}

func TestDeletionOnlyWriteOnMissingFileProbesVersion(t *testing.T) {
	c := stubTool(t, `echo 12.30`)
	missing := filepath.Join(t.TempDir(), "missing.xmp")
	err := c.Write(context.Background(), missing, map[string]any{"Title": nil})
	assert.NoError(t, err, "the stub saw only -ver; a tag write would not have parsed")
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := stubTool(t, `echo 12.30`)
	_, err := c.Version(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
