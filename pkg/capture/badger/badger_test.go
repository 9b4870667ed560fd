package badger

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/nfs4probe/pkg/capture"
	capturetesting "github.com/marmos91/nfs4probe/pkg/capture/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore(t *testing.T) {
	suite := &capturetesting.StoreTestSuite{
		NewStore: func(t *testing.T) capture.Store {
			store, err := New(context.Background(), Config{DBPath: t.TempDir()})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := New(ctx, Config{DBPath: dir})
	require.NoError(t, err)

	rec := capturetesting.NewTestRecord(time.Now())
	require.NoError(t, store.Save(ctx, rec))
	require.NoError(t, store.Close())

	reopened, err := New(ctx, Config{DBPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Request, got.Request)
}

func TestKeyCapture(t *testing.T) {
	assert.Equal(t, []byte("c:abc"), keyCapture("abc"))
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
