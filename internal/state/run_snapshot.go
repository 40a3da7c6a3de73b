package state

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"
)

const RunSnapshotKey = "run:last_snapshot"

// RunSnapshot is the per-block driver state persisted after every evaluation
// cycle. Smoothed carries the EMA memory so a restart resumes the average
// instead of cold-starting it. Trades themselves are not recorded here.
type RunSnapshot struct {
	LastBlock   uint64  `msgpack:"last_block"`
	LastPrice   float64 `msgpack:"last_price"`
	Smoothed    float64 `msgpack:"smoothed"`
	HasSmoothed bool    `msgpack:"has_smoothed"`
	UpdatedAtMS int64   `msgpack:"updated_at_ms"`
}

func LoadRunSnapshot(ctx context.Context, store Store) (RunSnapshot, bool, error) {
	if store == nil {
		return RunSnapshot{}, false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	raw, ok, err := store.Get(ctx, RunSnapshotKey)
	if err != nil {
		return RunSnapshot{}, false, err
	}
	if !ok || len(raw) == 0 {
		return RunSnapshot{}, false, nil
	}
	var snapshot RunSnapshot
	if err := msgpack.Unmarshal(raw, &snapshot); err != nil {
		return RunSnapshot{}, false, err
	}
	return snapshot, true, nil
}

func SaveRunSnapshot(ctx context.Context, store Store, snapshot RunSnapshot) error {
	if store == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := msgpack.Marshal(snapshot)
	if err != nil {
		return err
	}
	return store.Set(ctx, RunSnapshotKey, payload)
}
