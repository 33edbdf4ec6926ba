package storage

import (
	"context"
	"errors"

	"github.com/mcoot/vinyltrader/internal/model"
)

// AtomicallyWithRetry runs fn in a transaction, starting over from scratch
// when the transaction loses an optimistic concurrency race. fn must be
// safe to run more than once. After the last attempt the conflict is
// returned to the caller.
func AtomicallyWithRetry(ctx context.Context, s Storage, attempts int, fn func(tx Tx) error) error {
	attempts = max(attempts, 1)
	var err error
	for range attempts {
		err = s.Atomically(ctx, fn)
		if !errors.Is(err, model.ErrConcurrentModification) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
