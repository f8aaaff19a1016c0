package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// blockingNotifier holds the first delivery until release is closed.
type blockingNotifier struct {
	mu       sync.Mutex
	got      []string
	started  chan struct{}
	release  chan struct{}
	once     sync.Once
	panicTx  string
	failWith error
}

func newBlockingNotifier() *blockingNotifier {
	return &blockingNotifier{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingNotifier) Notify(ctx context.Context, st State) error {
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
	if st.TxID == b.panicTx && b.panicTx != "" {
		panic("boom")
	}
	b.mu.Lock()
	b.got = append(b.got, st.TxID)
	b.mu.Unlock()
	return b.failWith
}

func (b *blockingNotifier) delivered() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.got...)
}

func TestAsyncNotifier_Coalesces(t *testing.T) {
	inner := newBlockingNotifier()
	a := NewAsyncNotifier(inner, time.Second, zerolog.Nop())
	ctx := context.Background()

	if err := a.Notify(ctx, State{TxID: "1"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	<-inner.started
	// While "1" is in flight, queue several; only the newest survives.
	for _, id := range []string{"2", "3", "4"} {
		if err := a.Notify(ctx, State{TxID: id}); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	close(inner.release)
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got := inner.delivered()
	if len(got) != 2 || got[0] != "1" || got[1] != "4" {
		t.Fatalf("expected [1 4], got %v", got)
	}
}

func TestAsyncNotifier_NotifyDoesNotBlock(t *testing.T) {
	inner := newBlockingNotifier()
	a := NewAsyncNotifier(inner, time.Second, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = a.Notify(context.Background(), State{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Notify blocked on a stuck watchdog")
	}
	close(inner.release)
	_ = a.Close()
}

func TestAsyncNotifier_SurvivesErrorsAndPanics(t *testing.T) {
	inner := newBlockingNotifier()
	close(inner.release)
	inner.panicTx = "bad"
	inner.failWith = errors.New("nope")
	a := NewAsyncNotifier(inner, time.Second, zerolog.Nop())
	_ = a.Notify(context.Background(), State{TxID: "bad"})
	time.Sleep(50 * time.Millisecond)
	_ = a.Notify(context.Background(), State{TxID: "good"})
	_ = a.Close()
	got := inner.delivered()
	if len(got) != 1 || got[0] != "good" {
		t.Fatalf("expected delivery after panic, got %v", got)
	}
}

func TestAsyncNotifier_DeliveryHasDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	inner := notifierFunc(func(ctx context.Context, _ State) error {
		deadline, ok = ctx.Deadline()
		return nil
	})
	a := NewAsyncNotifier(inner, 0, zerolog.Nop())
	start := time.Now()
	_ = a.Notify(context.Background(), State{})
	_ = a.Close()
	if !ok {
		t.Fatalf("expected a deadline on delivery context")
	}
	if d := deadline.Sub(start); d <= 0 || d > defaultNotifyTimeout+time.Second {
		t.Fatalf("unexpected deadline offset %v", d)
	}
}

type notifierFunc func(ctx context.Context, st State) error

func (f notifierFunc) Notify(ctx context.Context, st State) error { return f(ctx, st) }

func TestAsyncNotifier_CloseIdempotent(t *testing.T) {
	a := NewAsyncNotifier(NewMemoryNotifier(), time.Second, zerolog.Nop())
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestAsyncNotifier_DropsOlderSeq(t *testing.T) {
	inner := newBlockingNotifier()
	a := NewAsyncNotifier(inner, time.Second, zerolog.Nop())
	ctx := context.Background()

	_ = a.Notify(ctx, State{Seq: 2, TxID: "2"})
	<-inner.started
	// Older than the in-flight state: dropped.
	_ = a.Notify(ctx, State{Seq: 1, TxID: "1"})
	_ = a.Notify(ctx, State{Seq: 4, TxID: "4"})
	// Older than the pending state: the pending one stays.
	_ = a.Notify(ctx, State{Seq: 3, TxID: "3"})
	close(inner.release)
	_ = a.Close()
	got := inner.delivered()
	if len(got) != 2 || got[0] != "2" || got[1] != "4" {
		t.Fatalf("expected [2 4], got %v", got)
	}
}
