package redis

import (
	"context"
	"slices"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/txledger/internal/domain"
)

// newMiniredisClient starts an in-process server whose client and server are
// both released when the test ends.
func newMiniredisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func testSnapshots() []domain.AccountSnapshot {
	return []domain.AccountSnapshot{
		{
			ClientID:  1,
			Available: decimal.RequireFromString("1.5"),
			Held:      decimal.Zero,
			Total:     decimal.RequireFromString("1.5"),
		},
		{
			ClientID:  2,
			Available: decimal.Zero,
			Held:      decimal.RequireFromString("2"),
			Total:     decimal.RequireFromString("2"),
			Locked:    true,
		},
	}
}

func TestSnapshotStoreWriteAndGet(t *testing.T) {
	client, mr := newMiniredisClient(t)

	store := NewSnapshotStore(client, "account:", 0, 4)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, testSnapshots()))

	assert.Equal(t, "1.5000", mr.HGet("account:1", "available"))
	assert.Equal(t, "true", mr.HGet("account:2", "locked"))

	snap, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, snap.Held.Equal(decimal.NewFromInt(2)))
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(2)))
	assert.True(t, snap.Available.IsZero())
	assert.True(t, snap.Locked)

	ids, err := store.Clients(ctx)
	require.NoError(t, err)
	slices.Sort(ids)
	assert.Equal(t, []uint16{1, 2}, ids)
	assert.Equal(t, "redis", store.Name())
}

func TestSnapshotStoreTTL(t *testing.T) {
	client, mr := newMiniredisClient(t)

	store := NewSnapshotStore(client, "snap:", time.Hour, 4)

	require.NoError(t, store.Write(context.Background(), testSnapshots()))

	assert.Equal(t, time.Hour, mr.TTL("snap:1"))
	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("snap:1"))
}

func TestSnapshotStoreGetMissing(t *testing.T) {
	client, _ := newMiniredisClient(t)

	store := NewSnapshotStore(client, "account:", 0, 4)

	_, err := store.Get(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestSnapshotStoreWriteEmpty(t *testing.T) {
	client, mr := newMiniredisClient(t)

	store := NewSnapshotStore(client, "account:", 0, 4)

	require.NoError(t, store.Write(context.Background(), nil))
	assert.Empty(t, mr.Keys())
}

func TestSnapshotStoreWriteFailsWhenServerDown(t *testing.T) {
	client, mr := newMiniredisClient(t)

	mr.Close()
	store := NewSnapshotStore(client, "account:", 0, 4)

	require.Error(t, store.Write(context.Background(), testSnapshots()))
}
