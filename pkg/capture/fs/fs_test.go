package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/nfs4probe/pkg/capture"
	capturetesting "github.com/marmos91/nfs4probe/pkg/capture/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore(t *testing.T) {
	suite := &capturetesting.StoreTestSuite{
		NewStore: func(t *testing.T) capture.Store {
			store, err := New(context.Background(), Config{Path: t.TempDir()})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func TestFSStoreLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "captures")
	store, err := New(context.Background(), Config{Path: dir})
	require.NoError(t, err)

	rec := capturetesting.NewTestRecord(time.Now())
	require.NoError(t, store.Save(context.Background(), rec))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, rec.ID+".json", entries[0].Name())
}

func TestFSStoreListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := New(context.Background(), Config{Path: dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bogus.json"), []byte("{}"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	rec := capturetesting.NewTestRecord(time.Now())
	require.NoError(t, store.Save(context.Background(), rec))

	all, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, rec.ID, all[0].ID)
}

func TestFSStoreCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	store, err := New(context.Background(), Config{Path: dir})
	require.NoError(t, err)

	rec := capturetesting.NewTestRecord(time.Now())
	require.NoError(t, os.WriteFile(filepath.Join(dir, rec.ID+".json"), []byte("{not json"), 0644))

	_, err = store.Get(context.Background(), rec.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode capture")
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
