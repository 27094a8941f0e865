package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNotFound     = errors.New("api: not found")
)

// Error is a non-2xx backend response. Detail holds the "detail" member and
// Fields the per-field validation messages, when the body carries them.
type Error struct {
	StatusCode int
	Detail     string
	Fields     map[string][]string
	Body       string
}

// detailKeys are checked in order for a top-level message
var detailKeys = []string{"detail", "error", "mensaje"}

func isDetailKey(key string) bool {
	for _, k := range detailKeys {
		if k == key {
			return true
		}
	}
	return false
}

func newError(status int, raw []byte) *Error {
	e := &Error{StatusCode: status, Body: string(raw)}

	var payload map[string]json.RawMessage
	if json.Unmarshal(raw, &payload) != nil {
		return e
	}
	for _, key := range detailKeys {
		var s string
		if json.Unmarshal(payload[key], &s) == nil && s != "" {
			e.Detail = s
			break
		}
	}
	for key, value := range payload {
		if isDetailKey(key) {
			continue
		}
		var list []string
		if json.Unmarshal(value, &list) != nil {
			var s string
			if json.Unmarshal(value, &s) != nil {
				continue
			}
			list = []string{s}
		}
		if e.Fields == nil {
			e.Fields = make(map[string][]string)
		}
		e.Fields[key] = list
	}
	return e
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == 401
	case ErrNotFound:
		return e.StatusCode == 404
	}
	return false
}

// FieldMessage returns the first validation message for field, or ""
func (e *Error) FieldMessage(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Message is Detail when set, otherwise the first message for field
func (e *Error) Message(field string) string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.FieldMessage(field)
}

// StatusOf extracts the HTTP status from err, or 0 when err is not an *Error
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// AsError unwraps err into an *Error
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// mentionsAny reports whether s contains any of words, case-insensitively
func mentionsAny(s string, words ...string) bool {
	s = strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// IsDuplicateEmail reports whether a registration failure says the email is
// already taken
func IsDuplicateEmail(err error) bool {
	apiErr, ok := AsError(err)
	if !ok || apiErr.StatusCode != 400 {
		return false
	}
	return mentionsAny(apiErr.Message("correo"), "correo", "existe")
}
