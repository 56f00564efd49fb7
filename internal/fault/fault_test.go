package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestFromVendorStatusSeparatesClientAndServerErrors(t *testing.T) {
	rejected := FromVendorStatus("deepgram", 400, "bad audio")
	if rejected.Kind != VendorRejected {
		t.Fatalf("400 should be VendorRejected, got %v", rejected.Kind)
	}
	unavailable := FromVendorStatus("deepgram", 500, "oops")
	if unavailable.Kind != VendorUnavailable {
		t.Fatalf("500 should be VendorUnavailable, got %v", unavailable.Kind)
	}
	if rejected.Kind == unavailable.Kind {
		t.Fatal("4xx and 5xx must never map to the same kind")
	}
}

func TestFromTransportClassifiesDeadline(t *testing.T) {
	wrapped := fmt.Errorf("Post \"http://x\": %w", context.DeadlineExceeded)
	err := FromTransport("deepgram", wrapped)
	if KindOf(err) != Timeout {
		t.Fatalf("expected Timeout, got %v", KindOf(err))
	}
}

func TestFromTransportPassesThroughCancellation(t *testing.T) {
	err := FromTransport("deepgram", context.Canceled)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation should pass through, got %v", err)
	}
}

func TestKindOfUnwrapsNestedFault(t *testing.T) {
	inner := New(InvalidInput, "text too long")
	wrapped := fmt.Errorf("enhance: %w", inner)
	if KindOf(wrapped) != InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != Internal {
		t.Fatal("unclassified errors should report Internal")
	}
}

func TestTruncateBoundsVendorBody(t *testing.T) {
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'a'
	}
	f := FromVendorStatus("deepgram", 502, string(long))
	if len(f.VendorBody) > 4099 {
		t.Fatalf("vendor body not truncated: %d bytes", len(f.VendorBody))
	}
}
