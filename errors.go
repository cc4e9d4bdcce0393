package toon

import (
	"errors"
	"fmt"
)

// Code identifies a class of codec failure. Codes are stable and safe to
// match on programmatically.
type Code uint8

const (
	CodeNone Code = iota
	CodeSchemaInferenceFailed
	CodeSchemaValidationFailed
	CodeInvalidInput
	CodeParseError
	CodeEncodeError
	CodeTypeCoercionFailed
	CodeUnsupportedType
	CodeMissingField
)

// String returns the wire-stable code name.
func (c Code) String() string {
	switch c {
	case CodeSchemaInferenceFailed:
		return "SCHEMA_INFERENCE_FAILED"
	case CodeSchemaValidationFailed:
		return "SCHEMA_VALIDATION_FAILED"
	case CodeInvalidInput:
		return "INVALID_INPUT"
	case CodeParseError:
		return "PARSE_ERROR"
	case CodeEncodeError:
		return "ENCODE_ERROR"
	case CodeTypeCoercionFailed:
		return "TYPE_COERCION_FAILED"
	case CodeUnsupportedType:
		return "UNSUPPORTED_TYPE"
	case CodeMissingField:
		return "MISSING_FIELD"
	default:
		return "NONE"
	}
}

// Error is the typed error returned by all codec operations. Details holds
// the offending field/value/path for diagnostics.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("toon: %s: %s %v", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("toon: %s: %s", e.Code, e.Message)
}

// Is reports code equality, so callers can errors.Is against a bare code:
//
//	errors.Is(err, &toon.Error{Code: toon.CodeParseError})
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return te.Code == e.Code
	}
	return false
}

// newError builds a typed error with formatted message.
func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// withDetail attaches a detail key/value and returns the error.
func (e *Error) withDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 2)
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the Code from an error, or CodeNone for foreign errors.
func CodeOf(err error) Code {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return CodeNone
}
