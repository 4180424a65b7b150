package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const maxRawMessage = 200

// NetworkError is returned for transport failures (Status 0) and for any
// response with status >= 400. Payload is the raw response body.
type NetworkError struct {
	Status  int
	Payload []byte
	Method  string
	Path    string
	Cause   error
}

func (e *NetworkError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, truncate(string(e.Payload)))
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// UserMessage extracts the backend's explanation from the payload:
// detail, message or error keys, non_field_errors, then per-field lists.
// It falls back to the raw body.
func (e *NetworkError) UserMessage() string {
	if e.Status == 0 {
		return "No se pudo conectar con el servidor"
	}
	if len(e.Payload) == 0 {
		return http.StatusText(e.Status)
	}
	if !gjson.ValidBytes(e.Payload) {
		return truncate(strings.TrimSpace(string(e.Payload)))
	}
	doc := gjson.ParseBytes(e.Payload)
	switch {
	case doc.Type == gjson.String:
		return doc.String()
	case doc.IsArray():
		return joinStrings(doc)
	case !doc.IsObject():
		return truncate(doc.Raw)
	}
	for _, key := range []string{"detail", "message", "error"} {
		if v := doc.Get(key); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	if v := doc.Get("non_field_errors"); v.Exists() {
		return joinStrings(v)
	}
	var fields []string
	doc.ForEach(func(key, value gjson.Result) bool {
		fields = append(fields, key.String()+": "+joinStrings(value))
		return true
	})
	if len(fields) == 0 {
		return truncate(doc.Raw)
	}
	sort.Strings(fields)
	return strings.Join(fields, "; ")
}

func joinStrings(v gjson.Result) string {
	if !v.IsArray() {
		if v.Type == gjson.String {
			return v.String()
		}
		return v.Raw
	}
	parts := make([]string, 0)
	for _, item := range v.Array() {
		if item.Type == gjson.String {
			parts = append(parts, item.String())
		} else {
			parts = append(parts, item.Raw)
		}
	}
	return strings.Join(parts, " ")
}

func truncate(s string) string {
	if len(s) <= maxRawMessage {
		return s
	}
	cut := maxRawMessage
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Status == http.StatusNotFound
}

// IsTransport reports whether err never reached the backend.
func IsTransport(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Status == 0
}

// StatusOf returns the HTTP status carried by err, if any.
func StatusOf(err error) (int, bool) {
	var ne *NetworkError
	if errors.As(err, &ne) && ne.Status != 0 {
		return ne.Status, true
	}
	return 0, false
}
