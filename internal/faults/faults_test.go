package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := errors.New("rpc down")
	err := fmt.Errorf("cycle: %w", New(KindQuoteFetch, "curve", base))
	if got := KindOf(err); got != KindQuoteFetch {
		t.Fatalf("expected %s, got %s", KindQuoteFetch, got)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error")
	}
	if !Is(err, KindQuoteFetch) {
		t.Fatalf("expected Is to match quote fetch")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("x")); got != KindUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
	if Is(nil, KindUnknown) {
		t.Fatalf("nil error should not match any kind")
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(KindGasEstimation, "executeArbitrage", errors.New("execution reverted"))
	if got := err.Error(); got != "gas_estimation executeArbitrage: execution reverted" {
		t.Fatalf("unexpected message %q", got)
	}
}
