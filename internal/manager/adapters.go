package manager

import (
	"context"
	"strings"

	"modelhostd/internal/history"
	"modelhostd/pkg/types"
)

// Adapter mutation modes.
const (
	ModeAdd    = "add"
	ModeRemove = "remove"
)

// ModifyAdapters adds or removes one (run_id, checkpoint) pair for a model,
// persists the whole registry and notifies the watchdog.
func (m *Manager) ModifyAdapters(ctx context.Context, req types.ModifyLorasRequest) error {
	if req.Mode != ModeAdd && req.Mode != ModeRemove {
		return newValidation(KindInvalidMode, req.Model, "mode must be 'add' or 'remove'")
	}
	if strings.TrimSpace(req.Model) == "" {
		return newValidation(KindInvalidAdapter, "", "model must be set")
	}
	if strings.TrimSpace(req.RunID) == "" || strings.TrimSpace(req.Checkpoint) == "" {
		return newValidation(KindInvalidAdapter, req.Model, "run_id and checkpoint must be set")
	}
	ref := types.AdapterRef{RunID: req.RunID, Checkpoint: req.Checkpoint}

	m.mu.Lock()
	next := m.adapters.Clone()
	entry := next[req.Model]
	if entry.Loras == nil {
		entry.Loras = []types.AdapterRef{}
	}
	op := history.OpAdapterRemove
	switch req.Mode {
	case ModeRemove:
		entry.Loras = removeAdapter(entry.Loras, ref)
	case ModeAdd:
		if hasAdapter(entry.Loras, ref) {
			m.mu.Unlock()
			return newValidation(KindDuplicateAdapter, req.Model, "lora %s %s already exists", req.RunID, req.Checkpoint)
		}
		entry.Loras = append(entry.Loras, ref)
		op = history.OpAdapterAdd
	}
	next[req.Model] = entry
	if err := m.persist(ctx, docAdapters, next); err != nil {
		m.mu.Unlock()
		return err
	}
	m.adapters = next
	st := m.snapshotLocked()
	m.mu.Unlock()

	m.log.Info().Str("model", req.Model).Str("mode", req.Mode).Str("run_id", req.RunID).Str("checkpoint", req.Checkpoint).Msg("adapters committed")
	m.commit(ctx, st, op, req.Model, req.RunID+"/"+req.Checkpoint)
	return nil
}

// removeAdapter drops entries whose run_id and checkpoint both match.
func removeAdapter(loras []types.AdapterRef, ref types.AdapterRef) []types.AdapterRef {
	out := loras[:0]
	for _, l := range loras {
		if l == ref {
			continue
		}
		out = append(out, l)
	}
	return out
}

func hasAdapter(loras []types.AdapterRef, ref types.AdapterRef) bool {
	for _, l := range loras {
		if l == ref {
			return true
		}
	}
	return false
}
