package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"metalspot-service/internal/domain"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port string
	// Provider
	Provider     string
	StooqBaseURL string
	SourceLabel  string
	UserAgent    string
	Symbols      string
	FakePrices   string
	// Cache
	CacheTTL       time.Duration
	FetchTimeout   time.Duration
	RefreshTimeout time.Duration
	WarmOnStart    bool
	WarmInterval   time.Duration
	// HTTP caching hints, seconds
	ClientMaxAge         int
	SharedMaxAge         int
	StaleWhileRevalidate int
	// Warm-start store
	SnapshotStore  string
	SnapshotMaxAge time.Duration
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
}

// TrackedSymbol maps a symbol to the ticker the upstream knows it by.
type TrackedSymbol struct {
	Symbol domain.Symbol
	Ticker string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func boolDef(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func durMS(key string, defMS int) time.Duration {
	return time.Duration(atoiDef(getEnv(key, strconv.Itoa(defMS)), defMS)) * time.Millisecond
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                  getEnv("ENV", "local"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Port:                 getEnv("PORT", "8080"),
		Provider:             getEnv("PROVIDER", "stooq"),
		StooqBaseURL:         getEnv("STOOQ_BASE_URL", "https://stooq.com"),
		SourceLabel:          getEnv("SOURCE_LABEL", "stooq"),
		UserAgent:            getEnv("USER_AGENT", "metalspot-service/1.0"),
		Symbols:              getEnv("SYMBOLS", "gold:xauusd,silver:xagusd,platinum:xptusd"),
		FakePrices:           getEnv("FAKE_PRICES", "gold:2400.5,silver:31.25,platinum:1012"),
		CacheTTL:             durMS("CACHE_TTL_MS", 60000),
		FetchTimeout:         durMS("FETCH_TIMEOUT_MS", 4000),
		RefreshTimeout:       durMS("REFRESH_TIMEOUT_MS", 8000),
		WarmOnStart:          boolDef(getEnv("WARM_ON_START", "true"), true),
		WarmInterval:         durMS("WARM_INTERVAL_MS", 0),
		ClientMaxAge:         atoiDef(getEnv("CLIENT_MAX_AGE_S", "30"), 30),
		SharedMaxAge:         atoiDef(getEnv("SHARED_MAX_AGE_S", "300"), 300),
		StaleWhileRevalidate: atoiDef(getEnv("STALE_WHILE_REVALIDATE_S", "600"), 600),
		SnapshotStore:        getEnv("SNAPSHOT_STORE", "none"),
		SnapshotMaxAge:       durMS("SNAPSHOT_MAX_AGE_MS", 24*60*60*1000),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              atoiDef(getEnv("REDIS_DB", "0"), 0),
	}
}

// Validate rejects settings the cache cannot run with.
func (c Config) Validate() error {
	if _, err := ParseSymbols(c.Symbols); err != nil {
		return err
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_MS must be positive")
	}
	if c.FetchTimeout <= 0 || c.RefreshTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_MS and REFRESH_TIMEOUT_MS must be positive")
	}
	switch c.SnapshotStore {
	case "none", "redis":
	case "pg":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for SNAPSHOT_STORE=pg")
		}
	default:
		return fmt.Errorf("unsupported SNAPSHOT_STORE=%q", c.SnapshotStore)
	}
	return nil
}

// ParseSymbols reads "gold:xauusd,silver:xagusd". A bare symbol uses itself as ticker.
func ParseSymbols(spec string) ([]TrackedSymbol, error) {
	var out []TrackedSymbol
	seen := map[domain.Symbol]bool{}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, ticker, found := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		ticker = strings.TrimSpace(ticker)
		if !found || ticker == "" {
			ticker = name
		}
		if err := domain.ValidateSymbol(name); err != nil {
			return nil, err
		}
		sym := domain.Symbol(name)
		if seen[sym] {
			return nil, fmt.Errorf("%w: duplicate %q", domain.ErrInvalidSymbol, name)
		}
		seen[sym] = true
		out = append(out, TrackedSymbol{Symbol: sym, Ticker: strings.ToLower(ticker)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no symbols configured", domain.ErrInvalidSymbol)
	}
	return out, nil
}

// ParsePrices reads "gold:2400.5,silver:31.25" for the fake provider.
func ParsePrices(spec string) map[domain.Symbol]string {
	out := map[domain.Symbol]string{}
	for _, part := range strings.Split(spec, ",") {
		name, price, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		out[domain.Symbol(strings.TrimSpace(name))] = strings.TrimSpace(price)
	}
	return out
}

func Symbols(tracked []TrackedSymbol) []domain.Symbol {
	out := make([]domain.Symbol, 0, len(tracked))
	for _, t := range tracked {
		out = append(out, t.Symbol)
	}
	return out
}
