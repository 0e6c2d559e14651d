package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"metalspot-service/internal/application"
	"metalspot-service/internal/domain"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var _ application.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps the latest snapshot as one JSON value that expires after TTL.
type SnapshotStore struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func New(client *redis.Client, key string, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{Client: client, Key: key, TTL: ttl}
}

type quoteRecord struct {
	Price string    `json:"price"`
	AsOf  time.Time `json:"as_of"`
}

type snapshotRecord struct {
	FetchedAt time.Time              `json:"fetched_at"`
	Source    string                 `json:"source"`
	Quotes    map[string]quoteRecord `json:"quotes"`
}

func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	rec := snapshotRecord{
		FetchedAt: snap.FetchedAt,
		Source:    snap.Source,
		Quotes:    make(map[string]quoteRecord, len(snap.Quotes)),
	}
	for sym, q := range snap.Quotes {
		rec.Quotes[string(sym)] = quoteRecord{Price: q.Price.String(), AsOf: q.AsOf}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.Client.Set(ctx, s.Key, data, s.TTL).Err()
}

func (s *SnapshotStore) Load(ctx context.Context) (domain.Snapshot, bool, error) {
	data, err := s.Client.Get(ctx, s.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, err
	}

	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	quotes := make(map[domain.Symbol]domain.Quote, len(rec.Quotes))
	for name, qr := range rec.Quotes {
		price, err := decimal.NewFromString(qr.Price)
		if err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("decode %s price: %w", name, err)
		}
		q, err := domain.NewQuote(domain.Symbol(name), price, qr.AsOf)
		if err != nil {
			return domain.Snapshot{}, false, err
		}
		quotes[q.Symbol] = q
	}
	return domain.Snapshot{Quotes: quotes, FetchedAt: rec.FetchedAt, Source: rec.Source}, true, nil
}

func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
