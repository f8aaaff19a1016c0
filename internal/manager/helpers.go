package manager

import (
	"sort"

	"modelhostd/internal/storage"
)

const (
	docAssignment = storage.DocAssignment
	docAdapters   = storage.DocAdapters
)

// sortedKeys returns map keys in ascending order for deterministic iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
