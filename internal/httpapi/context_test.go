package httpapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequestContext_CanceledByServerShutdown(t *testing.T) {
	base, stop := context.WithCancel(context.Background())
	SetBaseContext(base)
	defer SetBaseContext(nil)

	ctx, cancel := requestContext(httptest.NewRequest("GET", "/", nil), 0)
	defer cancel()
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("request context not canceled after base context")
	}
}

func TestRequestContext_Timeout(t *testing.T) {
	ctx, cancel := requestContext(httptest.NewRequest("GET", "/", nil), 10*time.Millisecond)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected a deadline")
	}
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout did not fire")
	}
}

func TestRequestContext_NoTimeoutNoDeadline(t *testing.T) {
	SetBaseContext(nil)
	ctx, cancel := requestContext(httptest.NewRequest("GET", "/", nil), 0)
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("unexpected deadline")
	}
	cancel()
	if ctx.Err() == nil {
		t.Fatal("cancel did not end the context")
	}
}
