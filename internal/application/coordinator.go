package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"metalspot-service/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey     = "snapshot"
	persistTimeout = 2 * time.Second
)

// RefreshCoordinator runs at most one refresh at a time. Concurrent callers
// join the in-flight attempt and receive its result.
type RefreshCoordinator struct {
	base    context.Context
	fetcher *SymbolFetcher
	cache   *PriceCache
	symbols []domain.Symbol
	source  string
	timeout time.Duration

	store SnapshotStore
	clock Clock
	log   *zap.Logger

	flight singleflight.Group

	// at most one Save runs; a newer snapshot replaces one still waiting
	saveMu  sync.Mutex
	pending *domain.Snapshot
	saving  bool
}

type CoordinatorOption func(*RefreshCoordinator)

func WithStore(s SnapshotStore) CoordinatorOption {
	return func(c *RefreshCoordinator) { c.store = s }
}

func WithCoordinatorClock(clk Clock) CoordinatorOption {
	return func(c *RefreshCoordinator) { c.clock = clk }
}

func WithCoordinatorLogger(l *zap.Logger) CoordinatorOption {
	return func(c *RefreshCoordinator) { c.log = l }
}

// NewRefreshCoordinator builds a coordinator whose refreshes are bounded by
// timeout and canceled together with base.
func NewRefreshCoordinator(base context.Context, fetcher *SymbolFetcher, cache *PriceCache, symbols []domain.Symbol, source string, timeout time.Duration, opts ...CoordinatorOption) *RefreshCoordinator {
	c := &RefreshCoordinator{
		base:    base,
		fetcher: fetcher,
		cache:   cache,
		symbols: append([]domain.Symbol(nil), symbols...),
		source:  source,
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NoopSnapshotStore{}
	}
	if c.clock == nil {
		c.clock = realClock{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

func (c *RefreshCoordinator) Symbols() []domain.Symbol {
	return append([]domain.Symbol(nil), c.symbols...)
}

// Refresh joins the in-flight refresh or starts one. If ctx ends first the
// caller gets ctx.Err() while the refresh carries on for the other waiters.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (domain.Snapshot, error) {
	ch := c.flight.DoChan(refreshKey, func() (any, error) {
		return c.run()
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.Snapshot{}, res.Err
		}
		return res.Val.(domain.Snapshot), nil
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
}

func (c *RefreshCoordinator) run() (domain.Snapshot, error) {
	// a flight that finished just before this one may already have committed
	if snap, fresh := c.cache.Read(); fresh {
		RefreshTotal.WithLabelValues("skipped").Inc()
		return *snap, nil
	}

	ctx, cancel := context.WithTimeout(c.base, c.timeout)
	defer cancel()
	start := time.Now()

	quotes := make([]domain.Quote, len(c.symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(c.symbols))
	for i, sym := range c.symbols {
		i, sym := i, sym
		g.Go(func() error {
			q, err := c.fetcher.Fetch(gctx, sym)
			if err != nil {
				return err
			}
			quotes[i] = q
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		outcome := "failed"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
			err = fmt.Errorf("%w after %s: %w", domain.ErrRefreshTimeout, c.timeout, err)
		}
		c.logFailure(err, time.Since(start))
		RefreshTotal.WithLabelValues(outcome).Inc()
		RefreshDuration.Observe(time.Since(start).Seconds())
		return domain.Snapshot{}, err
	}

	bySymbol := make(map[domain.Symbol]domain.Quote, len(quotes))
	for _, q := range quotes {
		bySymbol[q.Symbol] = q
	}
	snap, err := domain.NewSnapshot(c.symbols, bySymbol, c.clock.Now(), c.source)
	if err != nil {
		c.logFailure(err, time.Since(start))
		RefreshTotal.WithLabelValues("failed").Inc()
		return domain.Snapshot{}, err
	}

	c.cache.Replace(snap)
	RefreshTotal.WithLabelValues("ok").Inc()
	RefreshDuration.Observe(time.Since(start).Seconds())
	c.log.Info("refresh.committed",
		zap.Int("symbols", len(snap.Quotes)),
		zap.Time("fetched_at", snap.FetchedAt),
		zap.Duration("duration", time.Since(start)),
	)

	c.persist(snap)
	return snap, nil
}

// persist hands snap to the background saver and returns at once, so waiters
// never wait on the store.
func (c *RefreshCoordinator) persist(snap domain.Snapshot) {
	if _, noop := c.store.(NoopSnapshotStore); noop {
		return
	}
	c.saveMu.Lock()
	c.pending = &snap
	if c.saving {
		c.saveMu.Unlock()
		return
	}
	c.saving = true
	c.saveMu.Unlock()
	go c.drainSaves()
}

func (c *RefreshCoordinator) drainSaves() {
	for {
		c.saveMu.Lock()
		snap := c.pending
		c.pending = nil
		if snap == nil {
			c.saving = false
			c.saveMu.Unlock()
			return
		}
		c.saveMu.Unlock()

		ctx, cancel := context.WithTimeout(c.base, persistTimeout)
		if err := c.store.Save(ctx, *snap); err != nil {
			c.log.Warn("snapshot.save_failed", zap.Error(err))
		}
		cancel()
	}
}

func (c *RefreshCoordinator) logFailure(err error, took time.Duration) {
	fields := []zap.Field{zap.Error(err), zap.Duration("duration", took)}
	var symErr *domain.SymbolError
	if errors.As(err, &symErr) {
		fields = append(fields, zap.String("symbol", string(symErr.Symbol)))
	}
	c.log.Warn("refresh.failed", fields...)
}
