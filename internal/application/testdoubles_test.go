package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"metalspot-service/internal/domain"

	"github.com/shopspring/decimal"
)

var errUpstream = errors.New("connection refused")

var testSymbols = []domain.Symbol{"gold", "silver", "platinum"}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeSource serves one CSV document per symbol and counts invocations.
type fakeSource struct {
	mu     sync.Mutex
	prices map[domain.Symbol]string
	errs   map[domain.Symbol]error
	delay  map[domain.Symbol]time.Duration
	calls  map[domain.Symbol]int
	total  atomic.Int64
}

func newFakeSource(prices map[domain.Symbol]string) *fakeSource {
	return &fakeSource{
		prices: prices,
		errs:   map[domain.Symbol]error{},
		delay:  map[domain.Symbol]time.Duration{},
		calls:  map[domain.Symbol]int{},
	}
}

func defaultPrices() map[domain.Symbol]string {
	return map[domain.Symbol]string{"gold": "2400.5", "silver": "31.25", "platinum": "1012"}
}

func (f *fakeSource) FetchRaw(ctx context.Context, sym domain.Symbol) (string, error) {
	f.total.Add(1)
	f.mu.Lock()
	f.calls[sym]++
	price, ok := f.prices[sym]
	err := f.errs[sym]
	delay := f.delay[sym]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no fixture for %s", sym)
	}
	return "Symbol,Date,Time,Open,High,Low,Close,Volume\nX," + "2025-01-01,12:00:00,1,1,1," + price + ",0\n", nil
}

func (f *fakeSource) setErr(sym domain.Symbol, err error) {
	f.mu.Lock()
	f.errs[sym] = err
	f.mu.Unlock()
}

func (f *fakeSource) setPrice(sym domain.Symbol, price string) {
	f.mu.Lock()
	f.prices[sym] = price
	f.mu.Unlock()
}

func (f *fakeSource) setDelay(sym domain.Symbol, d time.Duration) {
	f.mu.Lock()
	f.delay[sym] = d
	f.mu.Unlock()
}

func (f *fakeSource) callsFor(sym domain.Symbol) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[sym]
}

type memStore struct {
	mu    sync.Mutex
	snap  *domain.Snapshot
	saves int
	err   error
}

func (m *memStore) Load(context.Context) (domain.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Snapshot{}, false, m.err
	}
	if m.snap == nil {
		return domain.Snapshot{}, false, nil
	}
	return *m.snap, true, nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memStore) saved() *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// blockingStore holds every Save until release is closed or ctx ends.
type blockingStore struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
	saves   atomic.Int32
}

func newBlockingStore() *blockingStore {
	return &blockingStore{release: make(chan struct{}), started: make(chan struct{})}
}

func (b *blockingStore) Load(context.Context) (domain.Snapshot, bool, error) {
	return domain.Snapshot{}, false, nil
}

func (b *blockingStore) Save(ctx context.Context, _ domain.Snapshot) error {
	b.saves.Add(1)
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *memStore) Save(_ context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.snap = &snap
	return nil
}

type fixture struct {
	clock  *fakeClock
	source *fakeSource
	cache  *PriceCache
	coord  *RefreshCoordinator
	svc    *CacheService
}

func newFixture(ttl time.Duration, opts ...CoordinatorOption) *fixture {
	clk := newFakeClock()
	src := newFakeSource(defaultPrices())
	cache := NewPriceCache(ttl, clk)
	fetcher := NewSymbolFetcher(src, time.Second, clk)
	opts = append([]CoordinatorOption{WithCoordinatorClock(clk)}, opts...)
	coord := NewRefreshCoordinator(context.Background(), fetcher, cache, testSymbols, "test", 2*time.Second, opts...)
	return &fixture{
		clock:  clk,
		source: src,
		cache:  cache,
		coord:  coord,
		svc:    NewCacheService(coord, cache, WithClock(clk)),
	}
}

func mustDecimal(t testing.TB, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}
