package errors

import (
	"errors"
	"fmt"
)

// This package defines the error taxonomy of the chat service. Services return
// either one of the sentinel kinds below or an *Error that carries a kind plus
// the surface it happened on. The API layer uses `errors.Is()` against the
// kinds to pick an HTTP status, so services never deal with status codes.

var (
	// ErrBadRequest signifies a malformed or schema-violating payload.
	// Mapped to 400 Bad Request.
	ErrBadRequest = errors.New("bad_request")

	// ErrUnauthorized signifies that no valid session was presented.
	// Mapped to 401 Unauthorized.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden signifies that the authenticated user does not own the
	// addressed resource.
	// Mapped to 403 Forbidden.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound signifies that a requested resource could not be located.
	// Mapped to 404 Not Found.
	ErrNotFound = errors.New("not_found")

	// ErrRateLimit signifies that the user's daily message quota is used up.
	// Mapped to 429 Too Many Requests.
	ErrRateLimit = errors.New("rate_limit")

	// ErrOffline signifies that a required upstream is unreachable.
	// Mapped to 503 Service Unavailable.
	ErrOffline = errors.New("offline")

	// ErrInternal signifies an unexpected error on the server. Used to avoid
	// leaking implementation details to the client.
	// Mapped to 500 Internal Server Error.
	ErrInternal = errors.New("internal")
)

// Surface names the part of the product an error was raised from.
type Surface string

const (
	SurfaceAPI     Surface = "api"
	SurfaceChat    Surface = "chat"
	SurfaceHistory Surface = "history"
	SurfaceStream  Surface = "stream"
)

// Error is a classified error. Kind is one of the sentinel errors above.
type Error struct {
	Kind    error
	Surface Surface
	Message string
	Cause   error
}

// New creates a classified error of the given kind on a surface.
func New(kind error, surface Surface) *Error {
	return &Error{Kind: kind, Surface: surface}
}

// Wrap classifies cause as kind on the given surface.
func Wrap(kind error, surface Surface, cause error) *Error {
	return &Error{Kind: kind, Surface: surface, Cause: cause}
}

// WithMessage overrides the client-facing message.
func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code(), e.Cause)
	}
	return e.Code()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Code renders the error as "kind:surface", e.g. "rate_limit:chat".
func (e *Error) Code() string {
	kind := ErrInternal
	if e.Kind != nil {
		kind = e.Kind
	}
	if e.Surface == "" {
		return kind.Error()
	}
	return kind.Error() + ":" + string(e.Surface)
}

// UserMessage returns a message that is safe to show to end users.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Code() {
	case "bad_request:api":
		return "The request couldn't be processed. Please check your input and try again."
	case "unauthorized:chat", "unauthorized:history", "unauthorized:stream":
		return "You need to sign in to continue. Please sign in and try again."
	case "forbidden:chat", "forbidden:stream":
		return "This chat belongs to another user. Please check the chat ID and try again."
	case "not_found:chat":
		return "The requested chat was not found. Please check the chat ID and try again."
	case "rate_limit:chat":
		return "You have exceeded your maximum number of messages for the day. Please try again later."
	case "offline:chat":
		return "We're having trouble sending your message. Please check your internet connection and try again."
	}
	return "Something went wrong. Please try again later."
}

// KindOf returns the sentinel kind of err, or ErrInternal when err is not
// classified.
func KindOf(err error) error {
	for _, kind := range []error{ErrBadRequest, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrRateLimit, ErrOffline, ErrInternal} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}
