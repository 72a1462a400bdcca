package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// TransportErrorMessage describes failures talking to the invoice API.
	TransportErrorMessage = "invoice api request failed"
	// DeliveryErrorMessage describes a notification that could not be sent.
	DeliveryErrorMessage = "notification delivery failed"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is used when a Redis key does not exist.
	RedisNotFoundMessage = "redis key not found"
)

// Error kinds. Match them with errors.Is.
var (
	ErrTransport     = errors.New("transport error")
	ErrDelivery      = errors.New("delivery error")
	ErrRedis         = errors.New("redis error")
	ErrNotFound      = errors.New("not found")
	ErrRunInProgress = errors.New("agent run already in progress")
)

// Error wraps an underlying error with a kind, an HTTP status and a safe message.
type Error struct {
	Err     error
	Kind    error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// New creates a new Error with the provided information.
func New(err error, kind error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Kind:    kind,
		Status:  status,
		Message: message,
	}
}

// WrapTransport marks err as a failure to reach or read from the invoice API.
// A zero status defaults to 502.
func WrapTransport(err error, status int) error {
	if err == nil {
		return nil
	}
	if status == 0 {
		status = http.StatusBadGateway
	}
	return New(err, ErrTransport, status, TransportErrorMessage)
}

// WrapDelivery marks err as a failed notification send.
func WrapDelivery(err error) error {
	if err == nil {
		return nil
	}
	status := http.StatusBadGateway
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		status = e.Status
	}
	return New(err, ErrDelivery, status, DeliveryErrorMessage)
}

// StatusOf returns the status carried by err, or 500 when err is not an Error.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
