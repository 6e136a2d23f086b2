// internal/fault/fault.go
package fault

import (
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failure for reporting and recovery decisions.
// Values are stable; the HTTP surface and metrics label on the String form.
type Kind uint8

const (
	// KindUnknown is any failure that fits no other kind.
	KindUnknown Kind = iota

	// KindTimeout is a connect or read that exceeded the configured bound.
	KindTimeout

	// KindTransport is a connection/send/receive failure other than timeout.
	KindTransport

	// KindMalformed is a response too short or structurally invalid.
	KindMalformed

	// KindPersist is a durable log append failure.
	KindPersist

	// KindConfig is invalid configuration, rejected before any cycle starts.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	case KindPersist:
		return "persist"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error carries a kind, the operation that failed and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a kind and operation name.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is New with a formatted cause and no wrapped error.
func Errorf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the best-effort kind from an error without assuming
// concrete types. A net.Error that timed out classifies as KindTimeout even
// when nobody wrapped it.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}

	return KindUnknown
}
