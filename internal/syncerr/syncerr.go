// Package syncerr classifies failures of the billing synchronization path so
// that the webhook response can reflect whether a re-delivery can help.
package syncerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindDecode
	KindUnknownCustomer
	KindUpstream
	KindPersistence
	KindUnhandledEvent
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindDecode:
		return "decode"
	case KindUnknownCustomer:
		return "unknown_customer"
	case KindUpstream:
		return "upstream"
	case KindPersistence:
		return "persistence"
	case KindUnhandledEvent:
		return "unhandled_event"
	default:
		return "unknown"
	}
}

// Retryable reports whether re-delivering the same event may succeed.
func (k Kind) Retryable() bool {
	return k == KindUpstream || k == KindPersistence
}

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

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Authentication(op string, err error) error  { return newError(KindAuthentication, op, err) }
func Decode(op string, err error) error          { return newError(KindDecode, op, err) }
func UnknownCustomer(op string, err error) error { return newError(KindUnknownCustomer, op, err) }
func Upstream(op string, err error) error        { return newError(KindUpstream, op, err) }
func Persistence(op string, err error) error     { return newError(KindPersistence, op, err) }
func UnhandledEvent(op string, err error) error  { return newError(KindUnhandledEvent, op, err) }

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func Retryable(err error) bool {
	return KindOf(err).Retryable()
}
