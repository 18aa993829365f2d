package chat

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for a 401 before any bytes streamed. The
// client's invalidation hook has already fired by the time callers see it.
var ErrUnauthorized = errors.New("chat: unauthorized")

// QuotaError is returned for a 429. Body holds the server's structured
// payload when it sent one (reset time, plan limits).
type QuotaError struct {
	Body map[string]any
}

func (e *QuotaError) Error() string {
	if len(e.Body) == 0 {
		return "chat: quota exceeded"
	}
	return fmt.Sprintf("chat: quota exceeded: %v", e.Body)
}

// HTTPError is any other non-2xx response, including a 5xx that failed its
// single retry.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat: upstream status %d", e.Status)
	}
	return fmt.Sprintf("chat: upstream status %d: %s", e.Status, e.Body)
}

// ProtocolError is a failure the server reported in-band: an error-typed
// event, or a payload carrying a bare error field under no recognized type.
type ProtocolError struct {
	Message    string
	ErrorType  string
	Suggestion string
}

func (e *ProtocolError) Error() string {
	return "chat: " + e.Message
}

// IncompleteStreamCode is the stable code carried by IncompleteStreamError.
const IncompleteStreamCode = "STREAM_INCOMPLETE"

// IncompleteStreamError means the connection closed before a completion
// marker was seen. The chunks already delivered are valid but the response
// must not be presented as finished.
type IncompleteStreamError struct {
	Code      string
	StreamKey string
}

func (e *IncompleteStreamError) Error() string {
	return fmt.Sprintf("chat: stream %s ended without completion marker", e.StreamKey)
}

func newIncompleteStreamError(key string) *IncompleteStreamError {
	return &IncompleteStreamError{Code: IncompleteStreamCode, StreamKey: key}
}
