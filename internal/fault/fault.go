// Package fault defines the normalized failure taxonomy shared by the vendor
// adapters and the HTTP surface. Raw vendor error bodies never leave this
// package except as truncated detail strings.
package fault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	// InvalidInput covers malformed, missing, or oversized request data.
	// Detected locally, before any outbound vendor call.
	InvalidInput Kind = iota
	// VendorRejected is a vendor client-error status (4xx). The caller may
	// correct the request; the call is not retried here.
	VendorRejected
	// VendorUnavailable is a vendor server error or a transport failure.
	// Safe for the caller to retry; never retried by this service.
	VendorUnavailable
	// Timeout means the configured per-call deadline elapsed.
	Timeout
	// FeatureDisabled marks an optional capability that is not configured.
	// It is an expected state, not an error in the usual sense.
	FeatureDisabled
	// Internal is an unexpected failure in local processing.
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case VendorRejected:
		return "vendor_rejected"
	case VendorUnavailable:
		return "vendor_unavailable"
	case Timeout:
		return "timeout"
	case FeatureDisabled:
		return "feature_disabled"
	default:
		return "internal_error"
	}
}

type Fault struct {
	Kind    Kind
	Message string
	// VendorStatus is the upstream HTTP status when the fault originated at a
	// vendor boundary, zero otherwise.
	VendorStatus int
	// VendorBody is a truncated copy of the vendor response body, kept for
	// logs and error details only.
	VendorBody string

	cause error
}

func (f *Fault) Error() string {
	if f.VendorStatus != 0 {
		return fmt.Sprintf("%s: %s (vendor status %d)", f.Kind, f.Message, f.VendorStatus)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.cause }

func New(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Fault {
	return &Fault{Kind: kind, Message: message, cause: err}
}

// KindOf extracts the taxonomy kind from an error chain. Unclassified errors
// report Internal.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromVendorStatus classifies a non-2xx vendor response. 4xx statuses are
// client-correctable, 5xx and anything else mean the vendor itself failed.
func FromVendorStatus(vendor string, status int, body string) *Fault {
	kind := VendorUnavailable
	message := fmt.Sprintf("%s request failed", vendor)
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		kind = VendorRejected
		message = fmt.Sprintf("%s rejected the request", vendor)
	}
	return &Fault{
		Kind:         kind,
		Message:      message,
		VendorStatus: status,
		VendorBody:   truncate(body),
	}
}

// FromTransport classifies an error from the HTTP client itself: deadline
// expiry becomes Timeout, client-side cancellation is passed through so the
// surface can distinguish a disconnected caller, and everything else is a
// vendor transport failure.
func FromTransport(vendor string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(Timeout, err, fmt.Sprintf("%s call exceeded its deadline", vendor))
	case errors.Is(err, context.Canceled):
		return err
	default:
		return Wrap(VendorUnavailable, err, fmt.Sprintf("%s is unreachable", vendor))
	}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4096 {
		return s
	}
	return s[:4096] + "..."
}
