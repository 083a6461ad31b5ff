package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fileflow/fileflow/pkg/protocol"
)

// Kind classifies a failed response. The set is closed.
type Kind int

const (
	KindAPI Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "api_error"
	}
}

// Sentinels for errors.Is. KindAPI has no sentinel; use AsAPIError.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
	// Data is the decoded error body, nil when it was not JSON.
	Data any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// Is matches the kind sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Kind == KindBadRequest
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindConflict
	}
	return false
}

// ClientError reports whether the status is a 4xx.
func (e *APIError) ClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// KindForStatus maps an HTTP status to its kind.
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindAPI
	}
}

// newAPIError builds the typed error from a status and the raw body.
// The body is parsed opportunistically; an unparseable body leaves Data nil
// and falls back to the status text.
func newAPIError(status int, statusText string, body []byte) *APIError {
	e := &APIError{
		Kind:    KindForStatus(status),
		Status:  status,
		Message: statusText,
	}
	if len(body) == 0 {
		return e
	}
	var data any
	if json.Unmarshal(body, &data) != nil {
		return e
	}
	e.Data = data
	var er protocol.ErrorResponse
	if json.Unmarshal(body, &er) == nil && er.Text() != "" {
		e.Message = er.Text()
	}
	return e
}

// NewValidationError returns a bad-request error raised locally, before any
// network call.
func NewValidationError(msg string) *APIError {
	return &APIError{Kind: KindBadRequest, Status: http.StatusBadRequest, Message: msg}
}

// AsAPIError checks if an error is an APIError and returns it.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// AsConflict checks if an error is a 409 and returns it.
func AsConflict(err error) (*APIError, bool) {
	if ae, ok := AsAPIError(err); ok && ae.Kind == KindConflict {
		return ae, true
	}
	return nil, false
}

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsBadRequest(err error) bool   { return errors.Is(err, ErrBadRequest) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }

// UserMessage turns any error into text suitable for showing to a user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	ae, ok := AsAPIError(err)
	if !ok {
		return "Request failed. Please check your connection and try again."
	}
	switch ae.Kind {
	case KindBadRequest, KindConflict:
		return ae.Message
	case KindUnauthorized:
		return "Your session has expired. Please sign in again."
	case KindNotFound:
		return "The requested item was not found."
	default:
		return "The server encountered an error. Please try again later."
	}
}
