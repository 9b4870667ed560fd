package memory

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/nfs4probe/pkg/capture"
	capturetesting "github.com/marmos91/nfs4probe/pkg/capture/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	suite := &capturetesting.StoreTestSuite{
		NewStore: func(t *testing.T) capture.Store {
			return New()
		},
	}
	suite.Run(t)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	rec := capturetesting.NewTestRecord(time.Now())
	require.NoError(t, store.Save(ctx, rec))

	rec.Request[0] = 0xff

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, byte(0), got.Request[0])

	got.Response[0] = 0xee
	again, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, byte(0), again.Response[0])
}
