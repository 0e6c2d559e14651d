package worker

import (
	"context"
	"time"

	"metalspot-service/internal/application"

	"go.uber.org/zap"
)

var _ application.Worker = (*Warmer)(nil)

// SpotReader is the part of the cache service the warmer drives.
type SpotReader interface {
	Get(ctx context.Context) (application.Result, error)
}

// Warmer reads the cache on a ticker so a stale snapshot is refreshed before
// a client asks. Reads go through the same coalesced refresh path as requests.
type Warmer struct {
	Cache   SpotReader
	Every   time.Duration
	Timeout time.Duration
	Log     *zap.Logger
}

func (w *Warmer) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	if w.Every <= 0 {
		log.Info("warmer_disabled")
		return
	}
	if w.Timeout <= 0 {
		w.Timeout = w.Every
	}

	t := time.NewTicker(w.Every)
	defer t.Stop()

	log.Info("warmer_started", zap.Duration("every", w.Every))
	for {
		select {
		case <-ctx.Done():
			log.Info("warmer_stopped")
			return
		case <-t.C:
			w.tick(ctx, log)
		}
	}
}

func (w *Warmer) tick(ctx context.Context, log *zap.Logger) {
	c, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	res, err := w.Cache.Get(c)
	if err != nil {
		log.Warn("warm_failed", zap.Error(err))
		return
	}
	if res.Status != application.StatusHit {
		log.Debug("warm_done", zap.String("status", string(res.Status)), zap.Time("fetched_at", res.Snapshot.FetchedAt))
	}
}
