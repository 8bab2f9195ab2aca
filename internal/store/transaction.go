package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/phrazzld/pksim-api/internal/platform/logger"
)

// TxFn runs inside a transaction. Returning an error rolls it back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction commits when fn succeeds and rolls back when it returns
// an error or panics. A panic is re-raised once the rollback is attempted.
// If the rollback itself fails, the returned error wraps both failures.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) (err error) {
	log := logger.FromContext(ctx).With("component", "tx")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("begin failed", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		p := recover()
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed", "error", rbErr, "cause", err, "panic", p)
			if p == nil {
				err = fmt.Errorf("error rolling back transaction: %w", errors.Join(err, rbErr))
			}
		} else {
			log.Debug("rolled back", "cause", err, "panic", p)
		}
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}

	committed = true
	if err = tx.Commit(); err != nil {
		log.Error("commit failed", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
