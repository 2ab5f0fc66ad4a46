// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error classification for hioload-sock.

package api

import (
	"errors"
	"fmt"
	"syscall"
)

// Common errors used across the library.
var (
	ErrInvalidHeaderWidth = errors.New("block header must be 2 or 4 bytes")
	ErrPayloadTooLarge    = errors.New("payload too large for header width")
	ErrShortWrite         = errors.New("short write on atomic send")
	ErrSocketClosed       = errors.New("socket is closed")
	ErrBufferReleased     = errors.New("buffer already released")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotSupported       = errors.New("operation not supported")
	ErrNotFound           = errors.New("resource not found")
)

// ErrorCode classifies fatal failures surfaced to callers.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeSocketCreate
	ErrCodeSocketConnect
	ErrCodeTransport
	ErrCodeShortWrite
	ErrCodeNotSupported
	ErrCodeNotFound
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid argument"
	case ErrCodeSocketCreate:
		return "socket create failure"
	case ErrCodeSocketConnect:
		return "socket connect failure"
	case ErrCodeTransport:
		return "transport failure"
	case ErrCodeShortWrite:
		return "short write"
	case ErrCodeNotSupported:
		return "not supported"
	case ErrCodeNotFound:
		return "not found"
	default:
		return fmt.Sprintf("error code %d", int(c))
	}
}

// Error represents a structured error with code, context and the underlying cause.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.String()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WrapError creates a structured error around cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	e := NewError(code, message)
	e.Err = cause
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf returns the ErrorCode carried by err, or ErrCodeInternal when err
// is not an *Error. A nil err yields ErrCodeOK.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// IsTransient reports whether err is a retry-eligible transport signal:
// would-block or interrupted.
func IsTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EWOULDBLOCK) ||
		errors.Is(err, syscall.EINTR)
}
