package store

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"
)

// WithTx runs fn inside one transaction of s. Any error from fn rolls the
// transaction back before it is returned; otherwise the transaction commits.
// A panic in fn also rolls back.
func WithTx(ctx context.Context, s GraphStorage, fn func(tx Tx) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Warn("[Store][WithTx] Rollback failed", "err", rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Warn("[Store][WithTx] Rollback failed", "err", rbErr)
		}
		done = true
		return err
	}

	done = true
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return err
	}
	return nil
}
