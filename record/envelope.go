package record

import (
	"errors"
	"net/http"
)

// Envelope is the uniform result shape returned by every record operation.
// Field names are part of the wire contract with existing clients.
type Envelope struct {
	Data    any    `json:"Data"`
	Error   bool   `json:"Error"`
	Message string `json:"Message"`
}

// OK wraps data in a successful envelope. A nil payload is rendered as {}.
func OK(data any, message string) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{Data: data, Error: false, Message: message}
}

// Fail converts err into a failed envelope carrying an empty object.
func Fail(err error) Envelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Envelope{Data: map[string]any{}, Error: true, Message: msg}
}

// Failf builds a failed envelope from a plain message.
func Failf(message string) Envelope {
	return Envelope{Data: map[string]any{}, Error: true, Message: message}
}

// HTTPStatus maps an error kind to the status code the API surface reports.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrConnectivity):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
