package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error represents an invalid construction input detected while building a
// query.
//
// Errors are raised at the call that introduced the bad value, never at
// serialization time. A query that returned an Error from a mutating call
// may be partially built and should be discarded.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (predicate, value, key, ...).
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes construction errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a nil, blank or ill-typed input.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeUnknownGroup indicates a lookup of an unregistered group key
	// without a type to create it from.
	ErrCodeUnknownGroup ErrorCode = "UNKNOWN_GROUP"

	// ErrCodeInvalidMappingValue indicates a mapping expression that could
	// not be classified.
	ErrCodeInvalidMappingValue ErrorCode = "INVALID_MAPPING_VALUE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%q", k, e.Details[k])
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsInvalidArgument returns true for every construction error. Unknown
// group keys and unclassifiable mapping values are invalid arguments too.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	var qe *Error
	return errors.As(err, &qe)
}

// IsUnknownGroup returns true if the error is an unknown group lookup.
func IsUnknownGroup(err error) bool {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code == ErrCodeUnknownGroup
	}
	return false
}

// IsInvalidMappingValue returns true if the error is an unclassifiable
// mapping value.
func IsInvalidMappingValue(err error) bool {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code == ErrCodeInvalidMappingValue
	}
	return false
}

// NewInvalidArgument creates an Error for a bad construction input.
func NewInvalidArgument(message string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: message,
		Err:     err,
	}
}

// NewUnknownGroupError creates an Error for an unregistered group key.
func NewUnknownGroupError(key string) *Error {
	return &Error{
		Code:    ErrCodeUnknownGroup,
		Message: "group key is not registered and no type was given",
		Details: map[string]string{"key": key},
	}
}

// NewInvalidMappingValueError creates an Error carrying the offending
// predicate and raw mapping value.
func NewInvalidMappingValueError(predicate, value string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidMappingValue,
		Message: "mapping value cannot be classified",
		Details: map[string]string{
			"predicate": predicate,
			"value":     value,
		},
		Err: err,
	}
}
