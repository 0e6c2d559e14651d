package redisstore_test

import (
	"context"
	"testing"
	"time"

	"metalspot-service/internal/domain"
	redisstore "metalspot-service/internal/infrastructure/redis"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*redisstore.SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.New(client, "test:snapshot", time.Hour), mr
}

func sampleSnapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	snap, err := domain.NewSnapshot([]domain.Symbol{"gold", "silver"}, map[domain.Symbol]domain.Quote{
		"gold":   {Symbol: "gold", Price: decimal.RequireFromString("2400.5"), AsOf: at},
		"silver": {Symbol: "silver", Price: decimal.RequireFromString("31.25"), AsOf: at},
	}, at.Add(time.Second), "stooq")
	require.NoError(t, err)
	return snap
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	in := sampleSnapshot(t)

	require.NoError(t, store.Save(ctx, in))
	out, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, in.FetchedAt.Equal(out.FetchedAt))
	require.Equal(t, "stooq", out.Source)
	require.Equal(t, "2400.5", out.Quotes["gold"].Price.String())
	require.Equal(t, "31.25", out.Quotes["silver"].Price.String())
	require.True(t, out.Covers([]domain.Symbol{"gold", "silver"}))
}

func TestSnapshotStore_Missing(t *testing.T) {
	store, _ := newStore(t)
	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSnapshotStore_Expires(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleSnapshot(t)))

	mr.FastForward(2 * time.Hour)
	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSnapshotStore_Corrupt(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set("test:snapshot", "{not json"))
	_, _, err := store.Load(context.Background())
	require.Error(t, err)

	require.NoError(t, mr.Set("test:snapshot", `{"fetched_at":"2025-01-01T00:00:00Z","quotes":{"gold":{"price":"-1"}}}`))
	_, _, err = store.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrMalformedUpstreamData)
}

func TestSnapshotStore_Ping(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, store.Ping(context.Background()))
	mr.Close()
	require.Error(t, store.Ping(context.Background()))
}
