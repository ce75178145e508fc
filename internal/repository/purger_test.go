package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPurger(t *testing.T) (*Purger, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPurger(mock, 48*time.Hour, time.Hour, zerolog.Nop()), mock
}

func TestPurgerPurgeOnce(t *testing.T) {
	t.Run("deletes expired entries under the advisory lock", func(t *testing.T) {
		purger, mock := newTestPurger(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock\(\$1\)`).
			WithArgs(purgeLockKey).
			WillReturnRows(pgxmock.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(true))
		mock.ExpectExec(`DELETE FROM paper_cache WHERE retrieved_at < \$1`).
			WithArgs(pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))
		mock.ExpectCommit()

		purged, err := purger.PurgeOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), purged)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips the purge when another replica holds the lock", func(t *testing.T) {
		purger, mock := newTestPurger(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock\(\$1\)`).
			WithArgs(purgeLockKey).
			WillReturnRows(pgxmock.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(false))
		mock.ExpectCommit()

		purged, err := purger.PurgeOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, purged, "a contested lock must skip the delete entirely")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the delete fails", func(t *testing.T) {
		purger, mock := newTestPurger(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock\(\$1\)`).
			WithArgs(purgeLockKey).
			WillReturnRows(pgxmock.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(true))
		mock.ExpectExec(`DELETE FROM paper_cache WHERE retrieved_at < \$1`).
			WithArgs(pgxmock.AnyArg()).
			WillReturnError(errors.New("relation gone"))
		mock.ExpectRollback()

		_, err := purger.PurgeOnce(context.Background())
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPurgerRunStopsOnContextCancel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	purger := NewPurger(mock, 48*time.Hour, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		purger.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
