package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	domainerrors "github.com/listenupapp/readtrack/internal/errors"
)

// Error wraps a failed backend call with operation context. The wrapped
// error is always a domain error (or a context error when the caller gave up),
// so errors.Is against the domain sentinels sees through it.
type Error struct {
	Op     string // Operation: "search", "getBook", "listEntries", ...
	Status int    // HTTP status, 0 if the request never got a response
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend %s [%d]: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op string, status int, err error) error {
	return &Error{Op: op, Status: status, Err: err}
}

// statusError maps a non-2xx response to a domain error.
func statusError(status int, body []byte, notFoundID string) error {
	msg := serverMessage(body)

	switch {
	case status == http.StatusNotFound:
		if notFoundID != "" {
			return domainerrors.NotFound(notFoundID)
		}
		return domainerrors.NotFoundf("%s", orDefault(msg, "not found"))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domainerrors.AuthRequired(orDefault(msg, "authentication required"))
	case status == http.StatusConflict:
		return domainerrors.Conflict(orDefault(msg, "conflict"))
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domainerrors.Validation(orDefault(msg, "rejected by server"))
	case status == http.StatusTooManyRequests || status >= 500:
		return domainerrors.Transient(fmt.Errorf("server responded %d: %s", status, orDefault(msg, http.StatusText(status))))
	default:
		return domainerrors.Internal(fmt.Sprintf("unexpected status %d: %s", status, orDefault(msg, http.StatusText(status))))
	}
}

// transportError classifies a failure to get a response at all. A caller that
// cancelled gets its context error back; everything else, timeouts included,
// is transient.
func transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return domainerrors.Transient(err)
}

const maxMessageLen = 200

// serverMessage extracts a human-readable message from an error body, which
// the backend sends either as {"message": ...}, {"error": ...} or plain text.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return truncate(payload.Message)
		}
		if payload.Error != "" {
			return truncate(payload.Error)
		}
	}

	var plain string
	if err := json.Unmarshal(body, &plain); err == nil {
		return truncate(plain)
	}
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	return truncate(text)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxMessageLen {
		return string(r[:maxMessageLen]) + "…"
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
