package manager

import (
	"context"
	"errors"
	"sync"
	"testing"

	"modelhostd/internal/capability"
	"modelhostd/internal/catalog"
	"modelhostd/internal/storage"
	"modelhostd/pkg/types"
)

func intp(v int) *int { return &v }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]types.CatalogModel{
		{Name: "llama-7b", ModelPath: "meta-llama/Llama-2-7b", DefaultNCtx: 4096, SupportsLoRA: true},
		{Name: "coder-1b", ModelPath: "org/coder-1b", DefaultNCtx: 2048},
		{Name: "embed", ModelPath: "org/embed", DefaultNCtx: 512},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

// memStore is an in-memory DocumentStore that round-trips through JSON-like
// copies by keeping the typed values it was given.
type memStore struct {
	mu      sync.Mutex
	docs    map[string]any
	saveErr error
	saves   int
}

func newMemStore() *memStore { return &memStore{docs: map[string]any{}} }

func (s *memStore) Load(_ context.Context, name string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[name]
	if !ok {
		return false, nil
	}
	switch dst := v.(type) {
	case *types.AssignmentDocument:
		*dst = d.(types.AssignmentDocument).Clone()
	case *types.AdapterRegistry:
		*dst = d.(types.AdapterRegistry).Clone()
	default:
		return false, errors.New("memStore: unsupported type")
	}
	return true, nil
}

func (s *memStore) Save(_ context.Context, name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	switch d := v.(type) {
	case types.AssignmentDocument:
		s.docs[name] = d.Clone()
	case types.AdapterRegistry:
		s.docs[name] = d.Clone()
	default:
		return errors.New("memStore: unsupported type")
	}
	return nil
}

func (s *memStore) Close() error { return nil }

var _ storage.DocumentStore = (*memStore)(nil)

// fakeHistory records ops in memory.
type fakeHistory struct {
	mu      sync.Mutex
	entries []types.HistoryEntry
	err     error
}

func (h *fakeHistory) Record(_ context.Context, op, model, detail string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return "", h.err
	}
	id := op + "-" + string(rune('a'+len(h.entries)))
	h.entries = append([]types.HistoryEntry{{ID: id, Op: op, Model: model, Detail: detail}}, h.entries...)
	return id, nil
}

func (h *fakeHistory) Recent(_ context.Context, limit int) ([]types.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.entries) {
		limit = len(h.entries)
	}
	return append([]types.HistoryEntry(nil), h.entries[:limit]...), nil
}

type testEnv struct {
	m        *Manager
	store    *memStore
	notifier *MemoryNotifier
	history  *fakeHistory
}

func newTestEnv(t *testing.T, weights bool) *testEnv {
	t.Helper()
	env := &testEnv{store: newMemStore(), notifier: NewMemoryNotifier(), history: &fakeHistory{}}
	env.m = NewWithConfig(ManagerConfig{
		Catalog:  testCatalog(t),
		Checker:  capability.Static(weights),
		Store:    env.store,
		Notifier: env.notifier,
		History:  env.history,
	})
	if err := env.m.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return env
}
