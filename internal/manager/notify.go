package manager

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Notifier tells the watchdog that committed configuration changed.
type Notifier interface {
	Notify(ctx context.Context, st State) error
}

// noopNotifier is the default; it drops notifications.
type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, State) error { return nil }

var reconcileTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "modelhostd",
		Subsystem: "watchdog",
		Name:      "reconcile_total",
		Help:      "Watchdog reconciliations by result",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(reconcileTotal)
}

// AsyncNotifier dispatches notifications on a background goroutine so a
// slow watchdog never blocks a transaction. At most one notification is
// pending; a newer state replaces an undelivered older one, and a state
// whose Seq is below one already taken is dropped.
type AsyncNotifier struct {
	next    Notifier
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	pending *State
	lastSeq uint64

	wake chan struct{}
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewAsyncNotifier starts the dispatch goroutine. Each delivery is bounded by timeout.
func NewAsyncNotifier(next Notifier, timeout time.Duration, log zerolog.Logger) *AsyncNotifier {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	a := &AsyncNotifier{
		next:    next,
		timeout: timeout,
		log:     log,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
	a.wg.Add(1)
	go a.loop()
	return a
}

// Notify queues st and returns immediately.
func (a *AsyncNotifier) Notify(_ context.Context, st State) error {
	a.mu.Lock()
	switch {
	case st.Seq < a.lastSeq:
		a.mu.Unlock()
		a.log.Debug().Uint64("seq", st.Seq).Str("tx_id", st.TxID).Msg("stale reconcile dropped")
		reconcileTotal.WithLabelValues("coalesced").Inc()
		return nil
	case a.pending != nil && a.pending.Seq > st.Seq:
		a.mu.Unlock()
		a.log.Debug().Uint64("seq", st.Seq).Str("tx_id", st.TxID).Msg("reconcile coalesced")
		reconcileTotal.WithLabelValues("coalesced").Inc()
		return nil
	case a.pending != nil:
		a.log.Debug().Str("tx_id", a.pending.TxID).Msg("reconcile coalesced")
		reconcileTotal.WithLabelValues("coalesced").Inc()
	}
	a.pending = &st
	a.mu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
	return nil
}

// take removes the pending state and marks its Seq as delivered.
func (a *AsyncNotifier) take() (State, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return State{}, false
	}
	st := *a.pending
	a.pending = nil
	a.lastSeq = st.Seq
	return st, true
}

func (a *AsyncNotifier) loop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.wake:
			if st, ok := a.take(); ok {
				a.deliver(st)
			}
		case <-a.quit:
			// Flush whatever is still queued.
			if st, ok := a.take(); ok {
				a.deliver(st)
			}
			return
		}
	}
}

func (a *AsyncNotifier) deliver(st State) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			reconcileTotal.WithLabelValues("panic").Inc()
			a.log.Error().Interface("panic", r).Str("tx_id", st.TxID).Msg("reconcile panicked")
		}
	}()
	if err := a.next.Notify(ctx, st); err != nil {
		reconcileTotal.WithLabelValues("error").Inc()
		a.log.Error().Err(err).Str("tx_id", st.TxID).Dur("dur", time.Since(start)).Msg("reconcile failed")
		return
	}
	reconcileTotal.WithLabelValues("ok").Inc()
	a.log.Debug().Str("tx_id", st.TxID).Dur("dur", time.Since(start)).Msg("reconcile done")
}

// Close delivers any pending state and stops the goroutine.
func (a *AsyncNotifier) Close() error {
	a.once.Do(func() { close(a.quit) })
	a.wg.Wait()
	return nil
}
