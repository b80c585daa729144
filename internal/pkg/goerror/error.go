// Package goerror defines the error type every layer of the module speaks.
// Stores wrap driver failures into it, usecases attach user-facing messages
// and codes, and the router maps the code to an HTTP status. Callers branch
// on Code, never on message text.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels the storage layer returns so usecases can react to row outcomes
// without importing driver packages.
var (
	// ErrNotFound indicates the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates the request collided with existing state.
	ErrConflict = errors.New("resource conflict")
)

// Type is the coarse classification: who is at fault.
type Type int

const (
	// TypeServer marks failures on our side.
	TypeServer Type = iota
	// TypeBusiness marks requests that are well-formed but not allowed.
	TypeBusiness
	// TypeValidation marks malformed or invalid input.
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is the stable identifier callers and the HTTP layer branch on.
type Code int

const (
	// CodeInternal is an internal or unclassified failure.
	CodeInternal Code = iota
	// CodeInvalidFormat is a request the decoder could not accept.
	CodeInvalidFormat
	// CodeInvalidInput is a decoded request that failed validation.
	CodeInvalidInput
	// CodeNotFound is a missing resource.
	CodeNotFound
	// CodeConflict is a duplicate or otherwise colliding resource.
	CodeConflict
	// CodeTooManyRequest is a rate-limited request.
	CodeTooManyRequest
	// CodeUnauthorized is a failed authentication.
	CodeUnauthorized
	// CodeForbidden is a failed authorization.
	CodeForbidden
	// CodeTimeout is an operation that ran out of time.
	CodeTimeout
	// CodeExpired is a credential or challenge past its deadline.
	CodeExpired
	// CodeAttemptsExhausted is a verification retry budget fully consumed.
	CodeAttemptsExhausted
	// CodeRevoked is a token that was withdrawn or never issued.
	CodeRevoked
	// CodeDependency is an unavailable downstream system.
	CodeDependency
)

func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeTooManyRequest:
		return "ERROR_CODE_TOO_MANY_REQUESTS"
	case CodeUnauthorized:
		return "ERROR_CODE_UNAUTHORIZED"
	case CodeForbidden:
		return "ERROR_CODE_FORBIDDEN"
	case CodeExpired:
		return "ERROR_CODE_EXPIRED"
	case CodeAttemptsExhausted:
		return "ERROR_CODE_ATTEMPTS_EXHAUSTED"
	case CodeRevoked:
		return "ERROR_CODE_REVOKED"
	case CodeDependency:
		return "ERROR_CODE_DEPENDENCY_UNAVAILABLE"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error carries a wrapped cause, a user-facing message, a type, a code, and
// optionally per-field validation messages.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error prefers the wrapped cause, then the message, then a generic line
// for the type.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	case TypeServer:
		return "Internal error"
	default:
		return "Unknown error"
	}
}

// String renders everything the struct holds, for logs.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err,
	)
}

// Msg returns the user-facing message.
func (e *Error) Msg() string { return e.msg }

// Type returns the coarse classification.
func (e *Error) Type() Type { return e.errType }

// Code returns the stable code.
func (e *Error) Code() Code { return e.code }

// Fields returns the per-field validation messages, nil when none.
func (e *Error) Fields() map[string]string { return e.fields }

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the code to the HTTP status the router writes.
func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized, CodeExpired, CodeRevoked:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeConflict:
		return http.StatusConflict
	case CodeAttemptsExhausted:
		return http.StatusBadRequest
	case CodeDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func build(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer wraps an internal failure; the client sees only a generic message.
func NewServer(err error) error {
	return build(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness creates a rule violation with the given message and code.
func NewBusiness(msg string, code Code) error {
	return build(nil, msg, TypeBusiness, code)
}

// NewInvalidInput creates a validation error. With err set, the cause (for
// example a V10ValidationError) carries the details. Without it, kv pairs
// become the field map; an odd pair count degrades to a format error.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return build(err, "Validation error", TypeValidation, CodeInvalidInput)
	}
	if len(kv)%2 != 0 {
		return build(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}

	return &Error{
		msg:     "Validation error",
		errType: TypeValidation,
		code:    CodeInvalidInput,
		fields:  fields,
	}
}

// NewDependency marks a downstream outage with an operator-meaningful message.
func NewDependency(err error, msg string) error {
	return build(err, msg, TypeServer, CodeDependency)
}

// NewInvalidFormat rejects a request body the decoder could not accept.
func NewInvalidFormat(msgs ...string) error {
	if len(msgs) == 0 {
		return build(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}
	return build(nil, msgs[0], TypeValidation, CodeInvalidFormat)
}
