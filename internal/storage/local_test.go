package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) (*LocalStorageClient, string) {
	t.Helper()
	dir := t.TempDir()
	client, err := NewLocalStorageClient(dir)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, dir
}

func TestLocalStoreAndGet(t *testing.T) {
	client, dir := newLocal(t)
	ctx := context.Background()

	require.NoError(t, client.StoreFile(ctx, "data/CUserdataRECENT.json", []byte(`{"a":[]}`)))

	data, err := client.GetFile(ctx, "data/CUserdataRECENT.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":[]}`, string(data))

	onDisk, err := os.ReadFile(filepath.Join(dir, "data", "CUserdataRECENT.json"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	// replacing leaves no temporary files behind
	require.NoError(t, client.StoreFile(ctx, "data/CUserdataRECENT.json", []byte(`{}`)))
	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalPathsStayInsideBase(t *testing.T) {
	client, dir := newLocal(t)
	ctx := context.Background()

	require.NoError(t, client.StoreFile(ctx, "../../escape.txt", []byte("x")))
	_, err := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err)
}

func TestLocalFileExists(t *testing.T) {
	client, dir := newLocal(t)
	ctx := context.Background()

	ok, err := client.FileExists(ctx, "missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	ok, err = client.FileExists(ctx, "sub")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not files")

	require.NoError(t, client.StoreFile(ctx, "sub/file.txt", []byte("x")))
	ok, err = client.FileExists(ctx, "sub/file.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalListDir(t *testing.T) {
	client, _ := newLocal(t)
	ctx := context.Background()

	for _, p := range []string{"b.txt", "a.txt", "nested/c.json"} {
		require.NoError(t, client.StoreFile(ctx, p, []byte("x")))
	}

	flat, err := client.ListDir(ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, flat)

	all, err := client.ListDir(ctx, "", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "nested/c.json"}, all)

	_, err = client.ListDir(ctx, "nope", false)
	assert.Error(t, err)
}

func TestLocalGetMissing(t *testing.T) {
	client, _ := newLocal(t)
	_, err := client.GetFile(context.Background(), "nope.json")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLocalStorageClientNeedsDir(t *testing.T) {
	_, err := NewLocalStorageClient("")
	assert.Error(t, err)
}
