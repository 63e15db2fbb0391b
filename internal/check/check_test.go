package check

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/exiftag/internal/exiftool"
)

func TestMajorVersion(t *testing.T) {
	assert.Equal(t, 12, majorVersion("12.30"))
	assert.Equal(t, 9, majorVersion("9.70"))
	assert.Equal(t, 0, majorVersion("bogus"))
}

func TestCheckDepsMissingBinary(t *testing.T) {
	c := &exiftool.Client{Path: "/nonexistent/exiftool"}
	err := CheckDeps(context.Background(), c)
	assert.ErrorIs(t, err, ErrExiftoolNotFound)
}

func TestCheckDeps(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "exiftool")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\necho 12.30\n"), 0o755))

	c := &exiftool.Client{Path: stub}
	assert.NoError(t, CheckDeps(context.Background(), c))

	old := filepath.Join(dir, "old")
	require.NoError(t, os.WriteFile(old, []byte("#!/bin/sh\necho 9.70\n"), 0o755))
	err := CheckDeps(context.Background(), &exiftool.Client{Path: old})
	assert.ErrorIs(t, err, ErrExiftoolTooOld)

	broken := filepath.Join(dir, "broken")
	require.NoError(t, os.WriteFile(broken, []byte("#!/bin/sh\nexit 3\n"), 0o755))
	err = CheckDeps(context.Background(), &exiftool.Client{Path: broken})
	assert.ErrorIs(t, err, ErrExiftoolBroken)
}
