package manager

import (
	"context"

	"modelhostd/pkg/types"
)

// ModelsView merges the catalog with the assignment document.
func (m *Manager) ModelsView() types.ModelsView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	models := m.catalog.Models()
	view := types.ModelsView{
		Models:             make([]types.ModelView, 0, len(models)),
		AssignmentDocument: m.assignment.Clone(),
	}
	for _, mdl := range models {
		_, assigned := m.assignment.ModelAssign[mdl.Name]
		loras := make([]types.AdapterRef, len(m.adapters[mdl.Name].Loras))
		copy(loras, m.adapters[mdl.Name].Loras)
		view.Models = append(view.Models, types.ModelView{
			CatalogModel: mdl,
			IsAssigned:   assigned,
			Loras:        loras,
		})
	}
	return view
}

// Assignment returns a copy of the committed assignment document.
func (m *Manager) Assignment() types.AssignmentDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assignment.Clone()
}

// Adapters returns a copy of the adapter registry.
func (m *Manager) Adapters() types.AdapterRegistry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.adapters.Clone()
}

// Devices lists GPUs visible to the host. Always succeeds.
func (m *Manager) Devices(ctx context.Context) types.DeviceList {
	if m.devices == nil {
		return types.DeviceList{GPUs: []types.Device{}}
	}
	return m.devices.Devices(ctx)
}

// History returns the most recent committed mutations, newest first.
func (m *Manager) History(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	if m.history == nil {
		return []types.HistoryEntry{}, nil
	}
	return m.history.Recent(ctx, limit)
}
