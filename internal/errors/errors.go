package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/colinaird/pomblock/internal/logger"
)

// Kind classifies an error for propagation and retry decisions.
// The sync engine retries by kind, never by message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindIO
	KindSerialization
	KindStorage
	KindInvalidConfig
	KindCredential
	KindGatewayTransient
	KindGatewayPermanent
	KindTokenExpired
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindSerialization:
		return "serialization"
	case KindStorage:
		return "storage"
	case KindInvalidConfig:
		return "invalid_config"
	case KindCredential:
		return "credential"
	case KindGatewayTransient:
		return "gateway_transient"
	case KindGatewayPermanent:
		return "gateway"
	case KindTokenExpired:
		return "token_expired"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Error carries a kind alongside the message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is match on kind when the target is a *Error with no cause
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind && (other.Message == "" || other.Message == e.Message)
	}
	return false
}

// New creates a kinded error with a formatted message
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an existing error
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient reports whether err should be retried by the sync engine
func IsTransient(err error) bool {
	return KindOf(err) == KindGatewayTransient
}

// IsTokenExpired reports whether err signals an invalidated continuation token
func IsTokenExpired(err error) bool {
	return KindOf(err) == KindTokenExpired
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
