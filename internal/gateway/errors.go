package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/RichardoC/folio/internal/models"
	"github.com/pkg/errors"
)

// Kind classifies a failed call. The set is closed: callers switch on it
// exhaustively and never inspect transport details.
type Kind int

const (
	Generic Kind = iota
	RateLimited
	ServerError
	Timeout
)

const (
	MsgRateLimited = "Too many requests. Please wait a moment and try again."
	MsgServerError = "Server error. Please try again later."
	MsgTimeout     = "Request timeout. Please check your connection."
	MsgGeneric     = "Failed to send message. Please try again."
)

func (k Kind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case ServerError:
		return "server_error"
	case Timeout:
		return "timeout"
	default:
		return "generic"
	}
}

// Error is returned by every Client operation that fails.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code, 0 when no response arrived.
	Status int
	Err    error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err, Generic for errors not produced by a Client.
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return Generic
}

// fromStatus normalizes a non-2xx response.
func fromStatus(status int, body []byte) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return &Error{Kind: RateLimited, Message: MsgRateLimited, Status: status}
	case http.StatusInternalServerError:
		return &Error{Kind: ServerError, Message: MsgServerError, Status: status}
	}

	msg := fmt.Sprintf("Request failed with status code %d", status)
	var payload models.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Detail) != "" {
		msg = payload.Detail
	}
	return &Error{Kind: Generic, Message: msg, Status: status}
}

// fromTransport normalizes a failure that produced no HTTP response.
func fromTransport(err error) *Error {
	if isTimeout(err) {
		return &Error{Kind: Timeout, Message: MsgTimeout, Err: err}
	}
	msg := MsgGeneric
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Kind: Generic, Message: msg, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
