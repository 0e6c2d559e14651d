package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"metalspot-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestRefresh_CommitsAllSymbols(t *testing.T) {
	t.Parallel()
	fx := newFixture(time.Minute)

	snap, err := fx.coord.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Quotes, 3)
	require.Equal(t, "2400.5", snap.Quotes["gold"].Price.String())
	require.Equal(t, "31.25", snap.Quotes["silver"].Price.String())
	require.Equal(t, "1012", snap.Quotes["platinum"].Price.String())
	require.Equal(t, fx.clock.Now(), snap.FetchedAt)
	require.Equal(t, "test", snap.Source)

	cached, fresh := fx.cache.Read()
	require.True(t, fresh)
	require.Equal(t, snap.FetchedAt, cached.FetchedAt)
}

func TestRefresh_OneFailureKeepsPreviousSnapshot(t *testing.T) {
	t.Parallel()
	fx := newFixture(time.Minute)
	first, err := fx.coord.Refresh(context.Background())
	require.NoError(t, err)

	fx.clock.Advance(2 * time.Minute)
	fx.source.setPrice("gold", "2500")
	fx.source.setErr("platinum", errUpstream)

	_, err = fx.coord.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	var symErr *domain.SymbolError
	require.True(t, errors.As(err, &symErr))
	require.Equal(t, domain.Symbol("platinum"), symErr.Symbol)

	cached, fresh := fx.cache.Read()
	require.False(t, fresh)
	require.Equal(t, first.FetchedAt, cached.FetchedAt)
	require.Equal(t, "2400.5", cached.Quotes["gold"].Price.String())
}

func TestRefresh_OverallDeadline(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	src := newFakeSource(defaultPrices())
	src.setDelay("silver", 2*time.Second)
	cache := NewPriceCache(time.Minute, clk)
	coord := NewRefreshCoordinator(context.Background(), NewSymbolFetcher(src, 5*time.Second, clk), cache, testSymbols, "test", 50*time.Millisecond)

	start := time.Now()
	_, err := coord.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrRefreshTimeout)
	require.Less(t, time.Since(start), time.Second)
	snap, _ := cache.Read()
	require.Nil(t, snap)
}

func TestRefresh_ConcurrentCallersShareOneAttempt(t *testing.T) {
	t.Parallel()
	fx := newFixture(time.Minute)
	for _, s := range testSymbols {
		fx.source.setDelay(s, 100*time.Millisecond)
	}

	const callers = 20
	var wg sync.WaitGroup
	results := make([]domain.Snapshot, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = fx.coord.Refresh(context.Background())
		}()
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, results[0].FetchedAt, results[i].FetchedAt)
	}
	require.EqualValues(t, len(testSymbols), fx.source.total.Load())
}

func TestRefresh_FailureReachesEveryWaiter(t *testing.T) {
	t.Parallel()
	fx := newFixture(time.Minute)
	fx.source.setDelay("gold", 50*time.Millisecond)
	fx.source.setErr("gold", errUpstream)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = fx.coord.Refresh(context.Background())
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	}
}

func TestRefresh_CallerContextDoesNotCancelFlight(t *testing.T) {
	t.Parallel()
	fx := newFixture(time.Minute)
	fx.source.setDelay("gold", 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := fx.coord.Refresh(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Eventually(t, func() bool {
		_, fresh := fx.cache.Read()
		return fresh
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRefresh_BaseCancelFailsWaiters(t *testing.T) {
	t.Parallel()
	base, cancel := context.WithCancel(context.Background())
	clk := newFakeClock()
	src := newFakeSource(defaultPrices())
	src.setDelay("gold", 5*time.Second)
	cache := NewPriceCache(time.Minute, clk)
	coord := NewRefreshCoordinator(base, NewSymbolFetcher(src, 10*time.Second, clk), cache, testSymbols, "test", 10*time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := coord.Refresh(context.Background())
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not receive a result after shutdown")
	}
}

func TestRefresh_PersistsSnapshot(t *testing.T) {
	t.Parallel()
	store := &memStore{}
	fx := newFixture(time.Minute, WithStore(store))

	snap, err := fx.coord.Refresh(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return store.saveCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, snap.FetchedAt, store.saved().FetchedAt)
}

func TestRefresh_SlowStoreDoesNotDelayWaiters(t *testing.T) {
	t.Parallel()
	store := newBlockingStore()
	defer close(store.release)
	fx := newFixture(time.Minute, WithStore(store))

	start := time.Now()
	_, err := fx.coord.Refresh(context.Background())
	require.NoError(t, err)
	require.Less(t, time.Since(start), 500*time.Millisecond)

	select {
	case <-store.started:
	case <-time.After(time.Second):
		t.Fatal("snapshot was never handed to the store")
	}
}

func TestRefresh_OneSaveAtATime(t *testing.T) {
	t.Parallel()
	store := newBlockingStore()
	fx := newFixture(time.Millisecond, WithStore(store))

	_, err := fx.coord.Refresh(context.Background())
	require.NoError(t, err)
	<-store.started

	for i := 0; i < 5; i++ {
		fx.clock.Advance(time.Second)
		_, err := fx.coord.Refresh(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), store.saves.Load())

	// the queued snapshots collapse into one more save
	close(store.release)
	require.Eventually(t, func() bool { return store.saves.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(2), store.saves.Load())
}

func TestRefresh_StoreFailureDoesNotFailRefresh(t *testing.T) {
	t.Parallel()
	store := &memStore{err: errors.New("redis down")}
	fx := newFixture(time.Minute, WithStore(store))

	_, err := fx.coord.Refresh(context.Background())
	require.NoError(t, err)
	_, fresh := fx.cache.Read()
	require.True(t, fresh)
}
