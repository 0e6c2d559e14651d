package application

import (
	"context"
	"fmt"

	"metalspot-service/internal/domain"

	"go.uber.org/zap"
)

type CacheStatus string

const (
	StatusHit   CacheStatus = "HIT"
	StatusMiss  CacheStatus = "MISS"
	StatusStale CacheStatus = "STALE"
)

type Result struct {
	Snapshot domain.Snapshot
	Status   CacheStatus
}

// CacheService is the request-facing entry point to the spot price cache.
type CacheService struct {
	coordinator *RefreshCoordinator
	cache       *PriceCache
	clock       Clock
	log         *zap.Logger
}

type Option func(*CacheService)

func WithClock(c Clock) Option        { return func(s *CacheService) { s.clock = c } }
func WithLogger(l *zap.Logger) Option { return func(s *CacheService) { s.log = l } }

func NewCacheService(coordinator *RefreshCoordinator, cache *PriceCache, opts ...Option) *CacheService {
	s := &CacheService{
		coordinator: coordinator,
		cache:       cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Get serves the cached snapshot when fresh, otherwise refreshes through the
// coordinator and falls back to the previous snapshot when that fails.
func (s *CacheService) Get(ctx context.Context) (Result, error) {
	if snap, fresh := s.cache.Read(); fresh {
		return s.result(*snap, StatusHit), nil
	}

	snap, err := s.coordinator.Refresh(ctx)
	if err == nil {
		return s.result(snap, StatusMiss), nil
	}

	if prev, _ := s.cache.Read(); prev != nil {
		s.log.Warn("spot.stale_served",
			zap.Time("fetched_at", prev.FetchedAt),
			zap.Duration("age", prev.Age(s.clock.Now())),
			zap.Error(err),
		)
		return s.result(*prev, StatusStale), nil
	}

	CacheRequestsTotal.WithLabelValues("error").Inc()
	s.log.Error("spot.cold_start_failed", zap.Error(err))
	return Result{}, fmt.Errorf("%w: %w: %w", domain.ErrServiceUnavailable, domain.ErrColdStartFailure, err)
}

func (s *CacheService) result(snap domain.Snapshot, status CacheStatus) Result {
	CacheRequestsTotal.WithLabelValues(string(status)).Inc()
	SnapshotAge.Set(snap.Age(s.clock.Now()).Seconds())
	return Result{Snapshot: snap, Status: status}
}

// Warm runs one coordinated refresh.
func (s *CacheService) Warm(ctx context.Context) error {
	_, err := s.coordinator.Refresh(ctx)
	return err
}

// Seed installs the stored snapshot while the cache is still cold. A stored
// snapshot that misses a tracked symbol is ignored.
func (s *CacheService) Seed(ctx context.Context, store SnapshotStore) (bool, error) {
	snap, ok, err := store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return false, nil
	}
	symbols := s.coordinator.Symbols()
	if !snap.Covers(symbols) {
		s.log.Info("snapshot.seed_skipped", zap.String("reason", "stored snapshot does not cover tracked symbols"))
		return false, nil
	}
	snap, err = domain.NewSnapshot(symbols, snap.Quotes, snap.FetchedAt, snap.Source)
	if err != nil {
		return false, err
	}
	seeded := s.cache.SeedIfEmpty(snap)
	if seeded {
		s.log.Info("snapshot.seeded", zap.Time("fetched_at", snap.FetchedAt), zap.String("state", string(s.cache.State())))
	}
	return seeded, nil
}

func (s *CacheService) State() CacheState { return s.cache.State() }

func (s *CacheService) Symbols() []domain.Symbol { return s.coordinator.Symbols() }
