package aap

import (
	"errors"
	"fmt"
)

// Error is a status code reported across the plugin ABI
type Error int32

const (
	// Success is never returned as an error; it is the zero status.
	Success Error = 0
	// ErrInvalidBuffer means a nil or undersized buffer was passed in
	ErrInvalidBuffer Error = -1
	// ErrProcessBufferAltered means the buffer changed after prepare
	ErrProcessBufferAltered Error = -2
	// ErrChannelInOutNumMismatch means the processor topology is unsupported
	ErrChannelInOutNumMismatch Error = -3
	// ErrTimeout means the process budget expired before the processor ran
	ErrTimeout Error = -4
	// ErrNotPrepared means a call arrived in the wrong lifecycle state
	ErrNotPrepared Error = -5
)

func (e Error) Error() string {
	switch e {
	case Success:
		return "success"
	case ErrInvalidBuffer:
		return "invalid buffer"
	case ErrProcessBufferAltered:
		return "process buffer altered"
	case ErrChannelInOutNumMismatch:
		return "input and output channel counts mismatch"
	case ErrTimeout:
		return "process timeout exceeded"
	case ErrNotPrepared:
		return "plugin not prepared"
	default:
		return fmt.Sprintf("aap error %d", int32(e))
	}
}

// Code extracts the ABI status from err. Errors not originating from this
// package map to ErrInvalidBuffer so that a negative code is still reported.
func Code(err error) Error {
	if err == nil {
		return Success
	}
	var code Error
	if errors.As(err, &code) {
		return code
	}
	return ErrInvalidBuffer
}
