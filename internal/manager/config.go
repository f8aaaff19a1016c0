package manager

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"modelhostd/internal/capability"
	"modelhostd/internal/catalog"
	"modelhostd/internal/storage"
	"modelhostd/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultNotifyTimeout = 5 * time.Second
	defaultGPUsShard     = 1
	maxGPUsShard         = 1024
)

// DeviceSource lists GPUs and host resources.
type DeviceSource interface {
	Devices(ctx context.Context) types.DeviceList
}

// HistoryLog records committed mutations and lists recent ones.
type HistoryLog interface {
	Record(ctx context.Context, op, model, detail string) (string, error)
	Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error)
}

// ManagerConfig encapsulates all collaborators and tunables for Manager construction.
type ManagerConfig struct {
	Catalog  *catalog.Catalog
	Checker  capability.Checker
	Store    storage.DocumentStore
	Notifier Notifier
	Devices  DeviceSource
	History  HistoryLog
	Logger   *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig with empty state.
// Call Load to read persisted documents.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		catalog:  cfg.Catalog,
		checker:  cfg.Checker,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		devices:  cfg.Devices,
		history:  cfg.History,
		log:      zerolog.Nop(),
		adapters: types.AdapterRegistry{},
		assignment: types.AssignmentDocument{
			ModelAssign: map[string]types.AssignmentRecord{},
		},
	}
	// Apply defaults if unset
	if m.checker == nil {
		m.checker = capability.Static(false)
	}
	if m.notifier == nil {
		m.notifier = noopNotifier{}
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	}
	return m
}

// Open constructs a Manager and loads persisted state.
func Open(ctx context.Context, cfg ManagerConfig) (*Manager, error) {
	m := NewWithConfig(cfg)
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}
