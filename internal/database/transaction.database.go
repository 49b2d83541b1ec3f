package database

import (
	"context"
	"fmt"
	contextutil "newsdigest/internal/context"

	"gorm.io/gorm"
)

// Transaction runs fn inside a database transaction. The transaction commits
// when fn returns nil and rolls back on error or panic. A nested call joins the
// outer transaction.
func (s *DB) Transaction(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) (err error) {
	log := s.log.Function("Transaction")

	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return fn(ctx, tx)
	}

	tx := s.SQL.WithContext(ctx).Begin()
	if tx.Error != nil {
		return log.Err("failed to begin transaction", tx.Error)
	}
	ctx = contextutil.WithTransaction(ctx, tx)

	defer func() {
		if r := recover(); r != nil {
			panicErr := log.ErrMsg("panic during transaction: " + fmt.Sprintf("%v", r))

			if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
				log.Er("CRITICAL: failed to rollback after panic", rollbackErr, "panic", r)
				panic(
					fmt.Sprintf(
						"transaction rollback failed: %v (original panic: %v)",
						rollbackErr,
						r,
					),
				)
			}

			err = panicErr
		}
	}()

	if err = fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			return log.Error("transaction rollback failed", "rollbackError", rollbackErr, "originalError", err)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return log.Err("failed to commit transaction", err)
	}

	return nil
}
