package serde

import (
	"errors"
	"fmt"
	"strconv"
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCUnknownType      RetCode = iota + 1 // 1: type name or tag is not registered.
	RetCDuplicateType                       // 2: a uniquely typed collection holds a type twice.
	RetCMissingField                        // 3: a required struct field is absent.
	RetCDuplicateField                      // 4: a struct field appears more than once.
	RetCUnknownField                        // 5: a struct field name is not recognized.
	RetCValueDecode                         // 6: the per-type decode capability failed.
	RetCCanonicalization                    // 7: a canonicalization hook failed (never fatal).
	RetCInvalidInput                        // 8: the input is not valid for the wire format.
)

func (c RetCode) String() string {
	switch c {
	case RetCUnknownType:
		return "UnknownType"
	case RetCDuplicateType:
		return "DuplicateType"
	case RetCMissingField:
		return "MissingField"
	case RetCDuplicateField:
		return "DuplicateField"
	case RetCUnknownField:
		return "UnknownField"
	case RetCValueDecode:
		return "ValueDecode"
	case RetCCanonicalization:
		return "Canonicalization"
	case RetCInvalidInput:
		return "InvalidInput"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error wraps a return code, the offending type or field name and an
// optional cause.
type Error struct {
	Code RetCode // The return code
	Name string  // The type name, tag or field name the error is about
	Err  error   // The underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	var msg string
	switch e.Code {
	case RetCUnknownType:
		msg = fmt.Sprintf("type not registered: `%s`", e.Name)
	case RetCDuplicateType:
		msg = fmt.Sprintf("duplicate type: `%s`", e.Name)
	case RetCMissingField:
		msg = fmt.Sprintf("missing field `%s`", e.Name)
	case RetCDuplicateField:
		msg = fmt.Sprintf("duplicate field `%s`", e.Name)
	case RetCUnknownField:
		msg = fmt.Sprintf("unknown field `%s`", e.Name)
	case RetCValueDecode:
		msg = fmt.Sprintf("failed to decode value of type `%s`", e.Name)
	case RetCCanonicalization:
		msg = fmt.Sprintf("failed to canonicalize value of type `%s`", e.Name)
	default:
		msg = "invalid input"
		if e.Name != "" {
			msg += " (" + e.Name + ")"
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("SceneError (code %s): %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("SceneError (code %s): %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code. A target
// with an empty name matches any name.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && (t.Name == "" || t.Name == e.Name)
}

// NewError creates a new Error with the given code, name and cause.
func NewError(code RetCode, name string, err error) *Error {
	return &Error{
		Code: code,
		Name: name,
		Err:  err,
	}
}

// Errorf creates a RetCInvalidInput error with a formatted cause.
func Errorf(format string, args ...any) *Error {
	return NewError(RetCInvalidInput, "", fmt.Errorf(format, args...))
}

// IsCode reports whether err (or anything it wraps) is an *Error with code.
func IsCode(err error, code RetCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func uitoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}
