package dispatch

import "fmt"

// Kind classifies a dispatch failure (spec.md §4.4/§7).
type Kind int

const (
	// UnknownMessageType covers every message type other than DISCOVER and
	// REQUEST, whether unrecognised or recognised but not handled by the
	// core (DECLINE, RELEASE, INFORM, ...). A missing MessageType option is
	// a ParseError instead.
	UnknownMessageType Kind = iota
	// NoLeasesAvailable means policy evaluation produced no usable
	// candidate address, or the allocator exhausted its candidate set.
	NoLeasesAvailable
	// ParseError means the inbound packet failed to decode.
	ParseError
	// InternalError covers allocator or store failures unrelated to pool
	// exhaustion.
	InternalError
	// OtherServer means a REQUEST named a server id that is not this
	// server's; the caller must silently drop the packet.
	OtherServer
	// NoPolicyConfigured means no policy in the tree applied to the
	// request.
	NoPolicyConfigured
)

func (k Kind) String() string {
	switch k {
	case UnknownMessageType:
		return "unknown message type"
	case NoLeasesAvailable:
		return "no leases available"
	case ParseError:
		return "parse error"
	case InternalError:
		return "internal error"
	case OtherServer:
		return "other server"
	case NoPolicyConfigured:
		return "no policy configured"
	default:
		return "unknown"
	}
}

// Error is the dispatcher's single error type; Kind selects which of the
// six outcomes in spec.md §7 occurred, and Err (if set) carries the
// underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
