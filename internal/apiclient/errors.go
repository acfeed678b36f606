package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed request so callers can pick a distinct message.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not_found"
	KindServer     Kind = "server"
	KindUnexpected Kind = "unexpected"
)

// Auth failure reasons.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonNotApproved        = "not_approved"
	ReasonSessionExpired     = "session_expired"
)

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrValidation = &Error{Kind: KindValidation}
	ErrPermission = &Error{Kind: KindPermission}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrServer     = &Error{Kind: KindServer}
)

// FieldError is a field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a failed API request.
type Error struct {
	Kind    Kind
	Status  int
	Reason  string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so that errors.Is(err, ErrAuth) works for any auth failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// KindOf returns the kind of err, or "" when err is not an API error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsAuth reports whether err is an authorization failure.
func IsAuth(err error) bool { return errors.Is(err, ErrAuth) }

// UserMessage is the human-readable text a view shows for err.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred"
	}
	switch e.Kind {
	case KindNetwork:
		return "Network error. Please check your connection."
	case KindAuth:
		if e.Reason == ReasonNotApproved {
			return "Organizer account pending admin approval"
		}
		if e.Reason == ReasonInvalidCredentials {
			return "Invalid email or password"
		}
		return "Unauthorized. Please log in again."
	case KindValidation:
		if e.Message != "" {
			return e.Message
		}
		return "Validation error"
	case KindPermission:
		return "Forbidden. You do not have permission."
	case KindNotFound:
		return "Resource not found"
	case KindServer:
		return "Server error. Please try again."
	}
	if e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred"
}

// errorBody covers the error shapes the API emits: {"detail": "..."},
// {"detail": [{"loc": [...], "msg": "..."}]} and {"message", "errors"}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Errors  []FieldError    `json:"errors"`
}

type detailItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// fromResponse builds an Error from a non-2xx status and its body.
func fromResponse(status int, body []byte) *Error {
	e := &Error{Status: status}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		e.Message = eb.Message
		e.Fields = eb.Errors
		if len(eb.Detail) > 0 {
			var s string
			var items []detailItem
			if json.Unmarshal(eb.Detail, &s) == nil {
				e.Message = s
			} else if json.Unmarshal(eb.Detail, &items) == nil {
				for _, it := range items {
					e.Fields = append(e.Fields, FieldError{Field: fieldName(it.Loc), Message: it.Msg})
				}
			}
		}
	}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
	case status == http.StatusForbidden:
		e.Kind = KindPermission
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindUnexpected
	}
	return e
}

func fieldName(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return fmt.Sprint(loc[len(loc)-1])
}
