package stability

import "errors"

// ErrorKind classifies API failures so callers can decide how to react
// without parsing message strings.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "invalid_input"
	KindMissingCredentials ErrorKind = "missing_credentials"
	KindNotFound           ErrorKind = "not_found"
	KindRateLimited        ErrorKind = "rate_limited"
	KindNetworkTimeout     ErrorKind = "network_timeout"
	KindServerError        ErrorKind = "server_error"
	KindUnknown            ErrorKind = "unknown"
)

// Error is the single error type returned by this package. Retriable marks
// failures where the same request may succeed if sent again later.
type Error struct {
	Kind      ErrorKind
	Status    int
	Message   string
	Retriable bool
	Cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf returns the kind of err, or KindUnknown if err is not a *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsRetriable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retriable
}

func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}

func IsMissingCredentials(err error) bool {
	return KindOf(err) == KindMissingCredentials
}
