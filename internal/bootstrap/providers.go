package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"metalspot-service/internal/application"
	"metalspot-service/internal/config"
	"metalspot-service/internal/domain"
	infraconfig "metalspot-service/internal/infrastructure/config"
	httpserver "metalspot-service/internal/infrastructure/http"
	"metalspot-service/internal/infrastructure/httpx"
	"metalspot-service/internal/infrastructure/logx"
	"metalspot-service/internal/infrastructure/pg"
	"metalspot-service/internal/infrastructure/provider"
	redisstore "metalspot-service/internal/infrastructure/redis"
	"metalspot-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for SNAPSHOT_STORE=pg")

// App is everything cmd/api needs to run.
type App struct {
	Config  config.Config
	Log     *zap.Logger
	Service *application.CacheService
	Server  *httpserver.Server
	Warmer  *worker.Warmer
	Store   Store
}

// Store is the warm-start snapshot store together with its readiness probe.
type Store struct {
	application.SnapshotStore
	Ping func(ctx context.Context) error
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() (config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func ProvideTrackedSymbols(cfg config.Config) ([]config.TrackedSymbol, error) {
	return config.ParseSymbols(cfg.Symbols)
}

func ProvideQuoteSource(cfg config.Config, tracked []config.TrackedSymbol) (application.QuoteSource, error) {
	switch cfg.Provider {
	case "stooq":
		tickers := make(map[domain.Symbol]string, len(tracked))
		for _, t := range tracked {
			tickers[t.Symbol] = t.Ticker
		}
		client := httpx.New(cfg.UserAgent)
		client.MaxBody = infraconfig.DefaultUpstreamMaxBody
		return &provider.StooqSource{BaseURL: cfg.StooqBaseURL, Tickers: tickers, Client: client}, nil
	case "fake":
		return provider.NewFake(config.ParsePrices(cfg.FakePrices)), nil
	default:
		return nil, fmt.Errorf("unsupported PROVIDER=%q", cfg.Provider)
	}
}

// ProvideStore opens the configured warm-start store. "none" keeps the cache
// purely in memory.
func ProvideStore(ctx context.Context, cfg config.Config, log *zap.Logger) (Store, func(), error) {
	switch cfg.SnapshotStore {
	case "redis":
		client, cleanup := provideRedisClient(cfg, log)
		store := redisstore.New(client, infraconfig.DefaultRedisSnapshotKey, cfg.SnapshotMaxAge)
		return Store{SnapshotStore: store, Ping: store.Ping}, cleanup, nil
	case "pg":
		db, cleanup, err := provideDB(ctx, cfg, log)
		if err != nil {
			return Store{}, func() {}, err
		}
		uow := &pg.UnitOfWork{Pool: db.Pool}
		return Store{SnapshotStore: pg.NewSnapshotRepo(db, uow), Ping: db.Ping}, cleanup, nil
	default:
		return Store{SnapshotStore: application.NoopSnapshotStore{}}, func() {}, nil
	}
}

func provideRedisClient(cfg config.Config, log *zap.Logger) (*redis.Client, func()) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return client, func() {
		log.Info("closing redis")
		_ = client.Close()
	}
}

func provideDB(ctx context.Context, cfg config.Config, log *zap.Logger) (*pg.DB, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, ErrMissingDBURL
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return db, cleanup, nil
}

// ProvideCacheService wires fetcher, cache and coordinator. ctx bounds the
// lifetime of every refresh the coordinator starts.
func ProvideCacheService(ctx context.Context, cfg config.Config, tracked []config.TrackedSymbol, src application.QuoteSource, store Store, log *zap.Logger) *application.CacheService {
	cache := application.NewPriceCache(cfg.CacheTTL, nil)
	fetcher := application.NewSymbolFetcher(src, cfg.FetchTimeout, nil)
	coord := application.NewRefreshCoordinator(ctx, fetcher, cache, config.Symbols(tracked), cfg.SourceLabel, cfg.RefreshTimeout,
		application.WithStore(store.SnapshotStore),
		application.WithCoordinatorLogger(log),
	)
	return application.NewCacheService(coord, cache, application.WithLogger(log))
}

func ProvideServer(svc *application.CacheService, cfg config.Config, store Store) *httpserver.Server {
	srv := httpserver.NewServer(svc, httpserver.CachePolicy{
		ClientMaxAge:         cfg.ClientMaxAge,
		SharedMaxAge:         cfg.SharedMaxAge,
		StaleWhileRevalidate: cfg.StaleWhileRevalidate,
	})
	if store.Ping != nil {
		srv.SetReadyCheck(store.Ping)
	}
	return srv
}

func ProvideWarmer(svc *application.CacheService, cfg config.Config, log *zap.Logger) *worker.Warmer {
	return &worker.Warmer{
		Cache:   svc,
		Every:   cfg.WarmInterval,
		Timeout: cfg.RefreshTimeout,
		Log:     log,
	}
}

// NewFetchService builds a store-less cache service for one-shot use from the CLI.
func NewFetchService(ctx context.Context, cfg config.Config, log *zap.Logger) (*application.CacheService, error) {
	tracked, err := ProvideTrackedSymbols(cfg)
	if err != nil {
		return nil, err
	}
	src, err := ProvideQuoteSource(cfg, tracked)
	if err != nil {
		return nil, err
	}
	return ProvideCacheService(ctx, cfg, tracked, src, Store{SnapshotStore: application.NoopSnapshotStore{}}, log), nil
}
