// Package apierror maps internal errors onto the gateway's JSON error
// envelope.
package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/banki-go/banki/pkg/store"
	"github.com/banki-go/banki/pkg/vision"
)

type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrUpstream       ErrorType = "upstream_error"
	ErrAPI            ErrorType = "api_error"
)

// Error is the canonical wire error.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Param     string    `json:"param,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

func (e *Error) Error() string { return string(e.Type) + ": " + e.Message }

// Invalid builds a bad-request error for the given parameter.
func Invalid(message, param string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message, Param: param}
}

type Envelope struct {
	Error *Error `json:"error"`
}

// FromError maps an internal error to a wire error and HTTP status.
// Unknown errors collapse to a generic internal error so details do not
// leak to clients.
func FromError(err error, requestID string) (*Error, int) {
	if err == nil {
		return nil, http.StatusOK
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Type: ErrAPI, Message: "request timeout", RequestID: requestID}, http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Type: ErrAPI, Message: "request cancelled", RequestID: requestID}, http.StatusRequestTimeout
	}

	// Already canonical.
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		out := *apiErr
		out.RequestID = requestID
		return &out, statusFromType(out.Type)
	}

	if errors.Is(err, store.ErrNotFound) {
		return &Error{Type: ErrNotFound, Message: "not found", RequestID: requestID}, http.StatusNotFound
	}

	// Model responses that failed to parse are an upstream problem, not a
	// client one.
	var parseErr *vision.ParseError
	if errors.As(err, &parseErr) && parseErr != nil {
		return &Error{
			Type:      ErrUpstream,
			Message:   "model returned an unparseable response",
			RequestID: requestID,
		}, http.StatusBadGateway
	}

	return &Error{Type: ErrAPI, Message: "internal error", RequestID: requestID}, http.StatusInternalServerError
}

func statusFromType(t ErrorType) int {
	switch t {
	case ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes the error envelope.
func WriteJSON(w http.ResponseWriter, err *Error, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: err})
}
