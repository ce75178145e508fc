package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-retrieval-service/internal/database"
)

// purgeLockKey serializes warm store purges across service replicas. Any
// single holder purging is enough; the others skip their tick.
const purgeLockKey int64 = 7245001

// Purger periodically deletes warm store entries older than the retention
// period. Each purge runs inside a transaction holding a transaction-scoped
// advisory lock, so concurrent replicas never double-delete and a crashed
// purger never strands the lock.
type Purger struct {
	db        database.TxBeginner
	retention time.Duration
	interval  time.Duration
	logger    zerolog.Logger
}

// NewPurger creates a purger removing entries retrieved more than retention
// ago, checking every interval.
func NewPurger(db database.TxBeginner, retention, interval time.Duration, logger zerolog.Logger) *Purger {
	return &Purger{
		db:        db,
		retention: retention,
		interval:  interval,
		logger:    logger.With().Str("component", "warm_store_purger").Logger(),
	}
}

// Run purges on every tick until ctx is cancelled.
func (p *Purger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := p.PurgeOnce(ctx)
			switch {
			case err != nil:
				p.logger.Warn().Err(err).Msg("warm store purge failed")
			case purged > 0:
				p.logger.Info().Int64("purged", purged).Msg("removed expired warm store entries")
			}
		}
	}
}

// PurgeOnce deletes entries older than the retention period. It returns zero
// without deleting anything when another replica holds the purge lock.
func (p *Purger) PurgeOnce(ctx context.Context) (int64, error) {
	var purged int64
	err := database.InTx(ctx, p.db, func(tx pgx.Tx) error {
		held, err := database.TryAdvisoryXactLock(ctx, tx, purgeLockKey)
		if err != nil {
			return err
		}
		if !held {
			return nil
		}

		cutoff := time.Now().UTC().Add(-p.retention)
		purged, err = NewPgPaperCacheRepository(tx).PurgeOlderThan(ctx, cutoff)
		return err
	})
	return purged, err
}
