package files

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestReadFile(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(path, []byte("var x = 1;"), 0o644))

	m := NewManager()
	content, err := m.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "var x = 1;", content)

	_, err = m.ReadFile(ctx, filepath.Join(dir, "missing.js"))
	require.Error(t, err)
	assert.Equal(t, fault.KindIO, fault.Classify(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFileAtomic(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "b.js")
	require.NoError(t, os.WriteFile(path, []byte("function foo(){}"), 0o600))

	m := NewManager()
	require.NoError(t, m.WriteFileAtomic(ctx, path, "function oof(){}"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "function oof(){}", string(content))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "mode should be kept")
	}

	assertNoTempFiles(t, dir)
}

func TestWriteFileAtomicNewFile(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "new.txt")

	require.NoError(t, NewManager().WriteFileAtomic(ctx, path, "hello"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestWriteFileAtomicInterrupted(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "b.js")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	// the temp file is fully written when rename fails, like a crash right before it
	m := NewManager()
	var sawTemp string
	m.rename = func(oldpath, newpath string) error {
		data, err := os.ReadFile(oldpath)
		require.NoError(t, err)
		sawTemp = string(data)
		return errors.New("killed")
	}

	err := m.WriteFileAtomic(ctx, path, "replacement")
	require.Error(t, err)
	assert.Equal(t, fault.KindIO, fault.Classify(err))
	assert.Contains(t, err.Error(), "renaming temp file: killed")
	assert.Equal(t, "replacement", sawTemp)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))

	assertNoTempFiles(t, dir)
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "nope", "c.js")

	err := NewManager().WriteFileAtomic(ctx, path, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating temp file")
}

func TestWriteFileAtomicCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	err := NewManager().WriteFileAtomic(ctx, filepath.Join(t.TempDir(), "d.js"), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files should not be left behind")
}
