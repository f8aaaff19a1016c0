package httpapi

import (
	"testing"
	"time"
)

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB on zero, got %d", maxBodyBytes)
	}
}

func TestSetMaxBodyBytes_PositiveSetsValue(t *testing.T) {
	SetMaxBodyBytes(1234)
	defer SetMaxBodyBytes(0)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
}

func TestSetMutationTimeout_NormalizesNegativeToZero(t *testing.T) {
	SetMutationTimeout(-5 * time.Second)
	if mutationTimeout != 0 {
		t.Fatalf("expected 0, got %v", mutationTimeout)
	}
	SetMutationTimeout(3 * time.Second)
	defer SetMutationTimeout(0)
	if mutationTimeout != 3*time.Second {
		t.Fatalf("expected 3s, got %v", mutationTimeout)
	}
}
