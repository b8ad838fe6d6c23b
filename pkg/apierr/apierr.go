// Package apierr defines the error taxonomy shared by the API client, the
// query cache and the page views.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// TransportError means the backend could not be reached or its reply could not be read.
type TransportError struct {
	Op  string // e.g. "GET /news"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports field constraints violated before a request was sent.
type ValidationError struct {
	Fields map[string]string // field -> message
}

func (e *ValidationError) Error() string {
	return e.Message()
}

// Message joins the field messages in field order.
func (e *ValidationError) Message() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

// APIError is a non-success HTTP response. Message is the body's "message"
// field and is empty when the backend did not send one.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: api error %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: api error %d: %s", e.Op, e.Status, e.Message)
}

// NotFoundError means a single-item lookup found nothing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Message returns the text shown to an end user for err. When err carries no
// user-facing text, fallback is returned.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		if msg := ve.Message(); msg != "" {
			return msg
		}
		return fallback
	}

	var ae *APIError
	if errors.As(err, &ae) {
		if ae.Message != "" {
			return ae.Message
		}
		return fallback
	}

	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}

	return fallback
}

// IsNotFound reports whether err is a lookup miss or a 404 response.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	return HasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return HasStatus(err, http.StatusUnauthorized)
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// HasStatus reports whether err is an APIError with the given status.
func HasStatus(err error, status int) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status == status
	}
	return false
}
