package domain

import "errors"

// Error kinds. Every failure surfaced by a use case wraps exactly one of these so the
// transport layer can map it to a status code with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrAuthentication      = errors.New("authentication error")
	ErrAuthorization       = errors.New("authorization error")
	ErrNotFound            = errors.New("entity not found")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConflict            = errors.New("entity already exists")
	ErrUpstreamGateway     = errors.New("upstream gateway error")
	ErrConfiguration       = errors.New("configuration error")
	ErrVerification        = errors.New("verification failed")
)

// Storage-level errors returned by repositories.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

// Error carries a kind, a caller-facing message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Kind.Error() + ": " + e.Err.Error()
	default:
		return e.Kind.Error()
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds a domain error of the given kind.
func NewError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError builds a domain error of the given kind keeping cause in the chain.
func WrapError(kind error, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

var kinds = []error{
	ErrValidation, ErrAuthentication, ErrAuthorization, ErrNotFound, ErrRateLimited,
	ErrInsufficientBalance, ErrConflict, ErrUpstreamGateway, ErrConfiguration, ErrVerification,
}

// KindOf returns the kind sentinel err belongs to, or nil for unclassified errors.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message returns the caller-facing message of err.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Error()
	}
	if k := KindOf(err); k != nil {
		return k.Error()
	}
	return "internal error"
}
