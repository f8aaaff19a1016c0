package manager

import (
	"context"
	"sync"
)

// MemoryNotifier stores notifications in-memory for tests.
type MemoryNotifier struct {
	mu     sync.Mutex
	states []State
	err    error
}

func NewMemoryNotifier() *MemoryNotifier { return &MemoryNotifier{} }

// FailWith makes subsequent Notify calls return err after recording.
func (n *MemoryNotifier) FailWith(err error) {
	n.mu.Lock()
	n.err = err
	n.mu.Unlock()
}

func (n *MemoryNotifier) Notify(_ context.Context, st State) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, st)
	return n.err
}

func (n *MemoryNotifier) States() []State {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]State, len(n.states))
	copy(out, n.states)
	return out
}
