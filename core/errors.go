package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ErrorKind classifies a failed remote call.
type ErrorKind int

const (
	// KindTransport: no response was received.
	KindTransport ErrorKind = iota
	// KindValidation: the remote side rejected the payload field by field.
	KindValidation
	// KindAuthorization: missing or invalid credential.
	KindAuthorization
	// KindRemote: any other non-2xx response.
	KindRemote
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	default:
		return "remote"
	}
}

// DetailItem is one entry of a structured validation error list: {"msg": ..., "loc": [...]}.
type DetailItem struct {
	Msg string
	Loc []string
}

func (d DetailItem) String() string {
	if len(d.Loc) == 0 {
		return d.Msg
	}
	return fmt.Sprintf("%s (%s)", d.Msg, strings.Join(d.Loc, "."))
}

// APIError is the normalized failure of a call through the request gateway.
type APIError struct {
	Kind       ErrorKind
	StatusCode int    // 0 for transport failures
	Detail     string // server-supplied string detail
	Fields     []DetailItem
	Raw        string // server-supplied detail that is neither a string nor a list
	Err        error  // underlying transport error
}

func (e *APIError) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case len(e.Fields) > 0:
		return joinDetailItems(e.Fields)
	case e.Raw != "":
		return e.Raw
	case e.Err != nil:
		return e.Err.Error()
	case e.StatusCode != 0:
		return fmt.Sprintf("request failed with status code %d", e.StatusCode)
	default:
		return "request failed"
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// AsAPIError returns the *APIError at the root of err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuthorization reports whether err is a rejected credential.
func IsAuthorization(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == KindAuthorization
}

// LoginErrorMessage extracts a human readable message from err with this precedence:
// string detail, joined validation list, raw detail, error message.
func LoginErrorMessage(err error) string {
	if err == nil {
		return "Unknown error"
	}
	if apiErr, ok := AsAPIError(err); ok {
		switch {
		case apiErr.Detail != "":
			return apiErr.Detail
		case len(apiErr.Fields) > 0:
			return joinDetailItems(apiErr.Fields)
		case apiErr.Raw != "":
			return apiErr.Raw
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}

// DetailMessage returns the server-supplied string detail of err, or fallback.
func DetailMessage(err error, fallback string) string {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

func joinDetailItems(items []DetailItem) string {
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		msgs = append(msgs, item.String())
	}
	return strings.Join(msgs, ", ")
}
