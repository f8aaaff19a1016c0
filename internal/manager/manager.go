package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"modelhostd/internal/capability"
	"modelhostd/internal/catalog"
	"modelhostd/internal/storage"
	"modelhostd/pkg/types"
)

// Manager is the single owner of the assignment document and the adapter
// registry. Mutations are serialized by mu; reads return copies.
type Manager struct {
	mu         sync.RWMutex
	loaded     bool
	seq        uint64
	assignment types.AssignmentDocument
	adapters   types.AdapterRegistry

	// notifyMu orders deliveries; lastNotified is the newest Seq handed on.
	notifyMu     sync.Mutex
	lastNotified uint64

	catalog  *catalog.Catalog
	checker  capability.Checker
	store    storage.DocumentStore
	notifier Notifier
	devices  DeviceSource
	history  HistoryLog
	log      zerolog.Logger
}

// New is a convenience for tests and simple wiring.
func New(cat *catalog.Catalog, checker capability.Checker, store storage.DocumentStore, notifier Notifier) *Manager {
	// Delegate to NewWithConfig to centralize defaults
	return NewWithConfig(ManagerConfig{
		Catalog:  cat,
		Checker:  checker,
		Store:    store,
		Notifier: notifier,
	})
}

// Load replaces in-memory state with the persisted documents. Missing
// documents leave the corresponding state empty.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store != nil {
		var doc types.AssignmentDocument
		if _, err := m.store.Load(ctx, storage.DocAssignment, &doc); err != nil {
			return fmt.Errorf("load %s: %w", storage.DocAssignment, err)
		}
		if doc.ModelAssign == nil {
			doc.ModelAssign = map[string]types.AssignmentRecord{}
		}
		reg := types.AdapterRegistry{}
		if _, err := m.store.Load(ctx, storage.DocAdapters, &reg); err != nil {
			return fmt.Errorf("load %s: %w", storage.DocAdapters, err)
		}
		if reg == nil {
			reg = types.AdapterRegistry{}
		}
		m.assignment = doc
		m.adapters = reg
	}
	m.loaded = true
	m.log.Info().Int("assigned", len(m.assignment.ModelAssign)).Int("adapter_models", len(m.adapters)).Msg("state loaded")
	return nil
}

// Ready reports whether persisted state has been loaded.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// snapshotLocked numbers a new commit and copies the state for the
// notifier. Caller holds mu for writing.
func (m *Manager) snapshotLocked() State {
	m.seq++
	return State{
		Seq:        m.seq,
		Assignment: m.assignment.Clone(),
		Adapters:   m.adapters.Clone(),
	}
}

// Snapshot returns the committed state tagged with the latest commit number.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Seq:        m.seq,
		Assignment: m.assignment.Clone(),
		Adapters:   m.adapters.Clone(),
	}
}

func (m *Manager) persist(ctx context.Context, doc string, v any) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Save(ctx, doc, v); err != nil {
		return persistError{doc: doc, err: err}
	}
	return nil
}

// commit records history and hands the new state to the notifier. Called
// without mu held; failures are logged, never returned. A snapshot older than
// one already handed on is skipped so the watchdog never goes backwards.
func (m *Manager) commit(ctx context.Context, st State, op, model, detail string) {
	if m.history != nil {
		id, err := m.history.Record(ctx, op, model, detail)
		if err != nil {
			m.log.Error().Err(err).Str("op", op).Msg("history record failed")
		} else {
			st.TxID = id
		}
	}
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	if st.Seq < m.lastNotified {
		m.log.Debug().Uint64("seq", st.Seq).Uint64("last", m.lastNotified).Str("op", op).Msg("stale snapshot skipped")
		return
	}
	m.lastNotified = st.Seq
	if err := m.notifier.Notify(ctx, st); err != nil {
		m.log.Error().Err(err).Str("op", op).Str("tx_id", st.TxID).Msg("reconcile notify failed")
	}
}
