package state

import (
	"context"
	"sync"
	"testing"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value []byte) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryStore) Close() error { return nil }

func TestRunSnapshotRoundTrip(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	_, ok, err := LoadRunSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if ok {
		t.Fatalf("expected no snapshot in empty store")
	}

	want := RunSnapshot{
		LastBlock:   17000000,
		LastPrice:   1843.25,
		Smoothed:    1840.5,
		HasSmoothed: true,
		UpdatedAtMS: 1700000000000,
	}
	if err := SaveRunSnapshot(ctx, store, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, ok, err := LoadRunSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected snapshot to exist")
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestRunSnapshotNilStore(t *testing.T) {
	if err := SaveRunSnapshot(context.Background(), nil, RunSnapshot{}); err != nil {
		t.Fatalf("nil store save should be a no-op, got %v", err)
	}
	_, ok, err := LoadRunSnapshot(context.Background(), nil)
	if err != nil || ok {
		t.Fatalf("nil store load should report absence, got ok=%v err=%v", ok, err)
	}
}

func TestRunSnapshotRejectsGarbage(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, RunSnapshotKey, []byte("not msgpack")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, _, err := LoadRunSnapshot(ctx, store); err == nil {
		t.Fatalf("expected decode error for garbage payload")
	}
}
