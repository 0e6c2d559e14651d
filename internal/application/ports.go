package application

import (
	"context"

	"metalspot-service/internal/domain"
)

// QuoteSource returns the raw upstream text for one symbol.
type QuoteSource interface {
	FetchRaw(ctx context.Context, sym domain.Symbol) (string, error)
}

// SnapshotStore keeps the last committed snapshot across restarts.
type SnapshotStore interface {
	// Load returns false when nothing usable is stored.
	Load(ctx context.Context) (domain.Snapshot, bool, error)
	Save(ctx context.Context, snap domain.Snapshot) error
}

// NoopSnapshotStore never persists; used when SNAPSHOT_STORE=none.
type NoopSnapshotStore struct{}

func (NoopSnapshotStore) Load(context.Context) (domain.Snapshot, bool, error) {
	return domain.Snapshot{}, false, nil
}

func (NoopSnapshotStore) Save(context.Context, domain.Snapshot) error { return nil }

// UnitOfWork runs fn inside one storage transaction carried by ctx.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Worker is a background loop that runs until ctx is canceled.
type Worker interface {
	Start(ctx context.Context)
}
