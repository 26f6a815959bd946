package bookreview

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ConnectivityMessage is shown when a request never got a response.
const ConnectivityMessage = "no response from the server; check your network connection"

// APIError is a non-2xx response from the service.
type APIError struct {
	Status    int
	Code      string
	MessageJP string
	MessageEN string
	Message   string
	Body      string
}

func (e *APIError) Error() string {
	msg := e.UserMessage("")
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed with status %d: %s", e.Status, msg)
}

// UserMessage picks the localized message, then the generic one, then fallback.
func (e *APIError) UserMessage(fallback string) string {
	if e.MessageJP != "" {
		return e.MessageJP
	}
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// NetworkError means no response was received at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err (or anything it wraps) is a NetworkError.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Describe turns any client error into text fit for an inline form message.
func Describe(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage(fallback)
	}
	if IsNetwork(err) {
		return ConnectivityMessage
	}
	return fallback
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: strings.TrimSpace(string(body))}
	var payload struct {
		ErrorCode      json.RawMessage `json:"ErrorCode"`
		ErrorMessageJP string          `json:"ErrorMessageJP"`
		ErrorMessageEN string          `json:"ErrorMessageEN"`
		Message        string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = strings.Trim(string(payload.ErrorCode), `"`)
		apiErr.MessageJP = payload.ErrorMessageJP
		apiErr.MessageEN = payload.ErrorMessageEN
		apiErr.Message = payload.Message
	}
	return apiErr
}
