package exec

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pool-tick-bot/internal/chain"
	"pool-tick-bot/internal/state"
)

// Submitter sends one swap and returns an execution reference (tx hash, or a
// synthetic id in dry-run mode).
type Submitter interface {
	Submit(ctx context.Context, req chain.SwapRequest) (string, error)
}

// Executor routes trade intents to the submitter. It enforces at most one
// swap per block: the block number is the idempotency key, persisted through
// the state store so a crash between submit and ack cannot double-trade on
// restart.
type Executor struct {
	submitter Submitter
	store     state.Store
	log       *zap.Logger

	mu    sync.Mutex
	cache map[string]string
}

func New(submitter Submitter, store state.Store, log *zap.Logger) *Executor {
	return &Executor{
		submitter: submitter,
		store:     store,
		log:       log,
		cache:     make(map[string]string),
	}
}

func blockKey(block uint64) string {
	return fmt.Sprintf("swap:block:%d", block)
}

// Execute submits the swap for req.Block unless one was already submitted for
// that block, in which case the stored reference is returned.
func (e *Executor) Execute(ctx context.Context, req chain.SwapRequest) (string, error) {
	if req.IntentID == "" {
		req.IntentID = uuid.NewString()
	}
	key := blockKey(req.Block)
	e.mu.Lock()
	if ref, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return ref, nil
	}
	e.mu.Unlock()
	if e.store != nil {
		if raw, ok, err := e.store.Get(ctx, key); err != nil {
			return "", err
		} else if ok {
			ref := string(raw)
			e.mu.Lock()
			e.cache[key] = ref
			e.mu.Unlock()
			return ref, nil
		}
	}
	ref, err := e.submitWithRetry(ctx, req)
	if err != nil {
		return "", err
	}
	if e.store != nil {
		if err := e.store.Set(ctx, key, []byte(ref)); err != nil {
			e.log.Warn("failed to persist swap reference", zap.Error(err))
		}
	}
	e.mu.Lock()
	e.cache[key] = ref
	e.mu.Unlock()
	return ref, nil
}

func (e *Executor) submitWithRetry(ctx context.Context, req chain.SwapRequest) (string, error) {
	var ref string
	err := e.retry(ctx, func() error {
		var err error
		ref, err = e.submitter.Submit(ctx, req)
		return err
	})
	if err != nil {
		return "", err
	}
	if ref == "" {
		return "", errors.New("empty execution reference")
	}
	return ref, nil
}

func (e *Executor) retry(ctx context.Context, fn func() error) error {
	backoff := 200 * time.Millisecond
	for attempt := 0; attempt < 5; attempt++ {
		if err := fn(); err != nil {
			if attempt == 4 {
				return fmt.Errorf("retry failed: %w", err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
			continue
		}
		return nil
	}
	return nil
}
