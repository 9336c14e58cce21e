package contracts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
// ⭐ SSOT: error taxonomy shared by every upstream client and the engine
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrUnavailable          = errors.New("upstream unavailable")
	ErrMalformedPayload     = errors.New("malformed payload")
	ErrEmptyUniverse        = errors.New("empty universe")
	ErrNoSignificantResults = errors.New("no significant results")
)

// ErrorKind classifies a failure
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindUnauthorized  ErrorKind = "unauthorized"
	KindNotFound      ErrorKind = "not_found"
	KindUnavailable   ErrorKind = "unavailable"
	KindMalformed     ErrorKind = "malformed"
	KindEmptyUniverse ErrorKind = "empty_universe"
	KindNoResults     ErrorKind = "no_results"
	KindCanceled      ErrorKind = "canceled"
	KindOther         ErrorKind = "other"
)

// sentinel returns the sentinel error matching a kind
func (k ErrorKind) sentinel() error {
	switch k {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindNotFound:
		return ErrNotFound
	case KindUnavailable:
		return ErrUnavailable
	case KindMalformed:
		return ErrMalformedPayload
	case KindEmptyUniverse:
		return ErrEmptyUniverse
	case KindNoResults:
		return ErrNoSignificantResults
	default:
		return nil
	}
}

// UpstreamError is a typed failure from an external service
type UpstreamError struct {
	Source     string    // goapi, tradingview, telegram
	StatusCode int       // 0 for transport errors
	Kind       ErrorKind
	Err        error
}

// NewUpstreamError builds an UpstreamError
func NewUpstreamError(source string, statusCode int, kind ErrorKind, err error) *UpstreamError {
	return &UpstreamError{Source: source, StatusCode: statusCode, Kind: kind, Err: err}
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind, so errors.Is(err, ErrUnauthorized) works
func (e *UpstreamError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

// KindFromStatus maps an HTTP status code to an error kind
// Only 401 is a definitive authorization failure; 403 is treated as unavailable
// (plan/quota limits) so it never trips the breaker.
func KindFromStatus(status int) ErrorKind {
	switch {
	case status >= 200 && status < 300:
		return KindNone
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	default:
		return KindUnavailable
	}
}

// Classify returns the kind of any error
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Kind
	}

	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindUnavailable
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrMalformedPayload):
		return KindMalformed
	case errors.Is(err, ErrEmptyUniverse):
		return KindEmptyUniverse
	case errors.Is(err, ErrNoSignificantResults):
		return KindNoResults
	default:
		return KindOther
	}
}

// IsUnauthorized is shorthand for Classify(err) == KindUnauthorized
func IsUnauthorized(err error) bool {
	return Classify(err) == KindUnauthorized
}
