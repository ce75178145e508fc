// Package repository provides data access interfaces and implementations
// for the paper retrieval service.
//
// # Overview
//
// The single repository here backs the warm result store: hunt results
// persisted as JSONB so a restarted service does not re-walk sources for
// papers it already retrieved. The in-memory cache in internal/cache stays
// the first stop; the repository is consulted on in-memory miss and
// written through on every completed hunt.
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use by multiple
// goroutines. The underlying pgxpool handles connection pooling and
// synchronization.
//
// # Error Handling
//
// All methods return domain-specific errors from the domain package.
// Wrap database errors with context using fmt.Errorf with %w verb.
//
//   - domain.ErrNotFound: cache key does not exist
//
// # Transactions
//
// Use the DBTX interface to support both pool and transaction contexts.
// Pass a transaction from database.InTx for atomic operations; the warm
// store purger does exactly this to pair an advisory lock with its delete.
package repository

import (
	"github.com/helixir/paper-retrieval-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction
// contexts. This allows repositories to work with both direct pool
// connections and transactions.
//
// Repository implementations follow a constructor pattern that accepts DBTX:
//
//	type PgPaperCacheRepository struct {
//	    db DBTX
//	}
//
//	func NewPgPaperCacheRepository(db DBTX) *PgPaperCacheRepository {
//	    return &PgPaperCacheRepository{db: db}
//	}
//
// This design enables:
//   - Direct usage with a connection pool for standard operations
//   - Transaction support by passing a transaction (pgx.Tx) instead
//   - Easy testing with mock implementations of DBTX
type DBTX = database.DBTX
