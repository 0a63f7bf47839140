package services

import (
	"context"
	"sync"

	"basket-share/db"

	"github.com/jackc/pgx/v5"
)

// writeMu serializes every basket mutation (create, join, add item,
// remove item) so that check-then-act sequences such as "look up basket
// id, then insert a related row" are atomic from the caller's point of
// view. It is a single-process correctness mechanism, not a distributed
// lock: running several server instances against one database requires
// store-side locking or stricter transaction isolation instead.
var writeMu sync.Mutex

// withWriteGuard runs fn while holding the write lock, inside one
// transaction. The transaction is rolled back unless fn succeeds and the
// commit goes through, so a failed mutation leaves no partial rows
// behind. The lock is held only for the duration of the transaction, a
// small constant number of store round-trips.
func withWriteGuard(ctx context.Context, fn func(tx pgx.Tx) error) error {
	writeMu.Lock()
	defer writeMu.Unlock()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
