package server

import (
	"errors"
	"fmt"
)

type ErrorCode uint

const (
	ErrUnknown ErrorCode = iota
	ErrNotFound
	ErrBadParamInput
	ErrInternalServerError
	ErrConflict
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not found"
	case ErrBadParamInput:
		return "bad param input"
	case ErrInternalServerError:
		return "internal server error"
	case ErrConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error carries the message shown to the client and the code used to pick the http status.
// The wrapped error stays available to errors.Is / errors.As.
type Error struct {
	orig error
	msg  string
	code ErrorCode
}

func WrapErrorf(orig error, code ErrorCode, format string, a ...interface{}) error {
	return &Error{
		orig: orig,
		code: code,
		msg:  fmt.Sprintf(format, a...),
	}
}

func NewErrorf(code ErrorCode, format string, a ...interface{}) error {
	return WrapErrorf(nil, code, format, a...)
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Code() ErrorCode {
	return e.code
}

// Message is the client facing part of the error, without the wrapped error.
func (e *Error) Message() string {
	return e.msg
}

// CodeOf returns the code of the first *Error in err's chain, or ErrUnknown.
func CodeOf(err error) ErrorCode {
	var serverErr *Error
	if errors.As(err, &serverErr) {
		return serverErr.Code()
	}
	return ErrUnknown
}
