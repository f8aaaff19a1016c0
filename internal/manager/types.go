package manager

import "modelhostd/pkg/types"

// State is the committed configuration handed to the watchdog.
type State struct {
	// Seq increases with every commit. Zero means unnumbered.
	Seq uint64
	// TxID identifies the mutation in the history log; empty when no log is configured.
	TxID       string
	Assignment types.AssignmentDocument
	Adapters   types.AdapterRegistry
}
