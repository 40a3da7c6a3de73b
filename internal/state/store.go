package state

import "context"

// Store is a small binary kv store used for run state that must survive
// restarts: the snapshot of the last processed block and the smoothing
// memory, and the executor's per-block idempotency marks.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
