package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

var errSentinel = errors.New("sentinel")

func TestWrapKeepsSentinelAndCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := Wrap(KindExternal, "ocrspace", errSentinel, cause)

	if !errors.Is(err, errSentinel) {
		t.Fatalf("errors.Is(err, sentinel) = false; err=%v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("errors.Is(err, cause) = false; err=%v", err)
	}
	if got, want := err.Error(), "ocrspace: sentinel: context deadline exceeded"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("x"), KindUnknown},
		{"direct", E(KindInput, "op", errors.New("x")), KindInput},
		{"wrapped", fmt.Errorf("outer: %w", E(KindPersistence, "save", errors.New("x"))), KindPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestENil(t *testing.T) {
	if err := E(KindInput, "op", nil); err != nil {
		t.Fatalf("E(nil) = %v, want nil", err)
	}
}
