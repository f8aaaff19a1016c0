package manager

import (
	"context"
	"fmt"
	"strings"

	"modelhostd/internal/history"
	"modelhostd/pkg/types"
)

// AssignModels validates req against the catalog and the capability checker
// and, when every entry passes, replaces the whole assignment document.
// Entries are validated in model-name order and the first violation is
// returned; nothing is written in that case.
func (m *Manager) AssignModels(ctx context.Context, req types.AssignRequest) error {
	names := sortedKeys(req.ModelAssign)
	usable := m.checkWeights(names, req.ModelAssign)

	m.mu.Lock()
	next := types.AssignmentDocument{
		ModelAssign:        make(map[string]types.AssignmentRecord, len(req.ModelAssign)),
		IntegrationToggles: req.IntegrationToggles,
	}
	for _, name := range names {
		rec, err := m.validateAssignLocked(name, req.ModelAssign[name], usable)
		if err != nil {
			m.mu.Unlock()
			m.log.Info().Str("model", name).Str("kind", string(KindOf(err))).Msg("assignment rejected")
			return err
		}
		next.ModelAssign[name] = rec
	}
	if err := m.persist(ctx, docAssignment, next); err != nil {
		m.mu.Unlock()
		return err
	}
	m.assignment = next
	st := m.snapshotLocked()
	m.mu.Unlock()

	m.log.Info().Int("models", len(next.ModelAssign)).Msg("assignment committed")
	m.commit(ctx, st, history.OpAssign, "", describeAssignment(next))
	return nil
}

// checkWeights runs the capability checker for the requested models that are
// not currently assigned, without holding mu. It stops at the first entry
// that would be rejected since later entries cannot change the outcome.
func (m *Manager) checkWeights(names []string, req map[string]types.ModelAssignRequest) map[string]bool {
	m.mu.RLock()
	assigned := make(map[string]bool, len(m.assignment.ModelAssign))
	for name := range m.assignment.ModelAssign {
		assigned[name] = true
	}
	m.mu.RUnlock()

	usable := map[string]bool{}
	for _, name := range names {
		info, err := m.validateEntry(name, req[name])
		if err != nil {
			break
		}
		if assigned[name] {
			continue
		}
		usable[name] = m.checker.HasUsableWeights(info.ModelPath)
		if !usable[name] {
			break
		}
	}
	return usable
}

// validateEntry checks one requested entry against the catalog alone.
func (m *Manager) validateEntry(name string, in types.ModelAssignRequest) (types.CatalogModel, error) {
	shards := defaultGPUsShard
	if in.GPUsShard != nil {
		shards = *in.GPUsShard
	}
	if shards < 0 || shards > maxGPUsShard {
		return types.CatalogModel{}, newValidation(KindInvalidShardCount, name,
			"gpus_shard must be between 0 and %d for %s", maxGPUsShard, name)
	}
	if in.NCtx == nil {
		return types.CatalogModel{}, newValidation(KindMissingContextLength, name, "n_ctx must be set for %s", name)
	}
	if *in.NCtx <= 0 {
		return types.CatalogModel{}, newValidation(KindMissingContextLength, name, "n_ctx must be positive for %s", name)
	}
	info, ok := m.catalog.Lookup(name)
	if !ok {
		return types.CatalogModel{}, newValidation(KindUnknownModel, name, "model %s not found", name)
	}
	if *in.NCtx > info.DefaultNCtx {
		return types.CatalogModel{}, newValidation(KindContextLengthExceeded, name,
			"n_ctx must be less or equal to %d for %s", info.DefaultNCtx, name)
	}
	return info, nil
}

// validateAssignLocked checks one requested entry, using the answers in
// usable for models that are not assigned. A model dropped by a concurrent
// commit after usable was computed is checked here. Caller holds mu.
func (m *Manager) validateAssignLocked(name string, in types.ModelAssignRequest, usable map[string]bool) (types.AssignmentRecord, error) {
	info, err := m.validateEntry(name, in)
	if err != nil {
		return types.AssignmentRecord{}, err
	}
	if _, assigned := m.assignment.ModelAssign[name]; !assigned {
		ok, checked := usable[name]
		if !checked {
			ok = m.checker.HasUsableWeights(info.ModelPath)
		}
		if !ok {
			return types.AssignmentRecord{}, newValidation(KindModelUnavailable, name,
				"Unable to access model '%s' from Hugging Face: Please check your internet connection and ensure you have access rights to this model.", name)
		}
	}
	shards := defaultGPUsShard
	if in.GPUsShard != nil {
		shards = *in.GPUsShard
	}
	return types.AssignmentRecord{GPUsShard: shards, ShareGPU: in.ShareGPU, NCtx: *in.NCtx}, nil
}

func describeAssignment(doc types.AssignmentDocument) string {
	parts := make([]string, 0, len(doc.ModelAssign))
	for _, name := range sortedKeys(doc.ModelAssign) {
		r := doc.ModelAssign[name]
		parts = append(parts, fmt.Sprintf("%s(gpus=%d share=%t n_ctx=%d)", name, r.GPUsShard, r.ShareGPU, r.NCtx))
	}
	if len(parts) == 0 {
		return "no models"
	}
	return strings.Join(parts, ", ")
}
