package pg

import (
	"context"
	"fmt"
	"time"

	"metalspot-service/internal/application"
	"metalspot-service/internal/domain"
	"metalspot-service/internal/infrastructure/logx"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ application.SnapshotStore = (*SnapshotRepo)(nil)

// SnapshotRepo stores the latest snapshot as one row per symbol. Save replaces
// every row inside a single transaction so readers never see a mix.
type SnapshotRepo struct {
	db  *DB
	uow application.UnitOfWork
}

func NewSnapshotRepo(db *DB, uow application.UnitOfWork) *SnapshotRepo {
	if uow == nil {
		uow = &UnitOfWork{Pool: db.Pool}
	}
	return &SnapshotRepo{db: db, uow: uow}
}

func (r *SnapshotRepo) Save(ctx context.Context, snap domain.Snapshot) error {
	const ins = `
        INSERT INTO spot_snapshot(symbol, price, as_of, fetched_at, source)
        VALUES ($1, $2::text::numeric, $3, $4, $5)`
	log := logx.L().With(
		zap.String("repo", "spot_snapshot"),
		zap.String("operation", "Save"),
		zap.Int("symbols", len(snap.Quotes)),
	)
	err := r.uow.Do(ctx, func(ctx context.Context) error {
		ex := execFor(ctx, r.db.Pool)
		if _, err := ex.Exec(ctx, `DELETE FROM spot_snapshot`); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
		for sym, q := range snap.Quotes {
			if _, err := ex.Exec(ctx, ins, string(sym), q.Price.String(), q.AsOf, snap.FetchedAt, snap.Source); err != nil {
				return fmt.Errorf("insert %s: %w", sym, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Debug("sql.exec_success")
	return nil
}

func (r *SnapshotRepo) Load(ctx context.Context) (domain.Snapshot, bool, error) {
	const q = `SELECT symbol, price::text, as_of, fetched_at, source FROM spot_snapshot`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	defer rows.Close()

	snap := domain.Snapshot{Quotes: map[domain.Symbol]domain.Quote{}}
	for rows.Next() {
		var (
			sym, price, source string
			asOf, fetchedAt    time.Time
		)
		if err := rows.Scan(&sym, &price, &asOf, &fetchedAt, &source); err != nil {
			return domain.Snapshot{}, false, err
		}
		if len(snap.Quotes) > 0 && !fetchedAt.Equal(snap.FetchedAt) {
			logx.L().Warn("spot_snapshot.mixed_rows", zap.String("symbol", sym))
			return domain.Snapshot{}, false, nil
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("decode %s price: %w", sym, err)
		}
		quote, err := domain.NewQuote(domain.Symbol(sym), d, asOf.UTC())
		if err != nil {
			return domain.Snapshot{}, false, err
		}
		snap.Quotes[quote.Symbol] = quote
		snap.FetchedAt, snap.Source = fetchedAt.UTC(), source
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, false, err
	}
	if len(snap.Quotes) == 0 {
		return domain.Snapshot{}, false, nil
	}
	return snap, true, nil
}
