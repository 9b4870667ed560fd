package testing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/nfs4probe/pkg/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite checks the capture.Store contract. It is shared by every
// store implementation.
//
// Usage:
//
//	func TestMyStore(t *testing.T) {
//	    suite := &capturetesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) capture.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore returns a fresh, empty store for each test.
	NewStore func(t *testing.T) capture.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("SaveAndGet", suite.testSaveAndGet)
	t.Run("SaveOverwrites", suite.testSaveOverwrites)
	t.Run("GetNotFound", suite.testGetNotFound)
	t.Run("GetInvalidID", suite.testGetInvalidID)
	t.Run("SaveInvalidRecord", suite.testSaveInvalidRecord)
	t.Run("ListOrdered", suite.testListOrdered)
	t.Run("ListEmpty", suite.testListEmpty)
	t.Run("CancelledContext", suite.testCancelledContext)
}

func (suite *StoreTestSuite) newStore(t *testing.T) capture.Store {
	t.Helper()
	store := suite.NewStore(t)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewTestRecord returns a populated record with the given timestamp.
func NewTestRecord(ts time.Time) *capture.Record {
	return &capture.Record{
		ID:        uuid.NewString(),
		Timestamp: ts.UTC(),
		Server:    "127.0.0.1:2049",
		XID:       7,
		Operation: "readdir",
		Request:   []byte{0, 0, 0, 0, 0, 0, 0, 0},
		Response:  []byte{0, 0, 0, 0, 0, 0, 0, 1},
		Duration:  3 * time.Millisecond,
	}
}

func (suite *StoreTestSuite) testSaveAndGet(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	rec := NewTestRecord(time.Now())
	rec.Error = "rpc transport: read fragment header: EOF"
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.True(t, rec.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, rec.Server, got.Server)
	assert.Equal(t, rec.XID, got.XID)
	assert.Equal(t, rec.Operation, got.Operation)
	assert.Equal(t, rec.Request, got.Request)
	assert.Equal(t, rec.Response, got.Response)
	assert.Equal(t, rec.Duration, got.Duration)
	assert.Equal(t, rec.Error, got.Error)
}

func (suite *StoreTestSuite) testSaveOverwrites(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	rec := NewTestRecord(time.Now())
	require.NoError(t, store.Save(ctx, rec))

	rec.Response = []byte{9, 9, 9, 9}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9, 9}, got.Response)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func (suite *StoreTestSuite) testGetNotFound(t *testing.T) {
	store := suite.newStore(t)

	_, err := store.Get(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrNotFound)
}

func (suite *StoreTestSuite) testGetInvalidID(t *testing.T) {
	store := suite.newStore(t)

	_, err := store.Get(context.Background(), "../../etc/passwd")
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrInvalidID)
}

func (suite *StoreTestSuite) testSaveInvalidRecord(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, nil))

	rec := NewTestRecord(time.Now())
	rec.ID = "not-a-uuid"
	assert.ErrorIs(t, store.Save(ctx, rec), capture.ErrInvalidID)
}

func (suite *StoreTestSuite) testListOrdered(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	third := NewTestRecord(base.Add(2 * time.Second))
	first := NewTestRecord(base)
	second := NewTestRecord(base.Add(time.Second))

	for _, rec := range []*capture.Record{third, first, second} {
		require.NoError(t, store.Save(ctx, rec))
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, third.ID, all[2].ID)
}

func (suite *StoreTestSuite) testListEmpty(t *testing.T) {
	store := suite.newStore(t)

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func (suite *StoreTestSuite) testCancelledContext(t *testing.T) {
	store := suite.newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Save(ctx, NewTestRecord(time.Now()))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, context.Canceled)
}
