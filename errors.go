package metascan

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed ranges, oversized
	// strings, and non-positive capacities. Arguments are validated before
	// any scanning begins.
	ErrInvalidArgument = errors.New("metascan: invalid argument")

	// ErrBufferTooSmall is returned when a packed result does not fit the
	// caller's buffer. Changed-inode and attribute queries degrade to a
	// successful partial result instead; only path reconstruction fails
	// hard with this error.
	ErrBufferTooSmall = errors.New("metascan: buffer too small")

	// ErrPermissionDenied is returned by the boundary when the caller
	// lacks the elevated capability required for path reconstruction.
	ErrPermissionDenied = errors.New("metascan: permission denied")

	// ErrTransport is returned when the boundary fails to move request or
	// response bytes. Always fatal to the call.
	ErrTransport = errors.New("metascan: transport fault")
)

// ErrStringTooLong indicates an attribute string above MaxXattrLen.
//
// It unwraps to ErrInvalidArgument.
type ErrStringTooLong struct {
	Len int
	Max int
}

func (e *ErrStringTooLong) Error() string {
	return fmt.Sprintf("string length %d exceeds maximum %d", e.Len, e.Max)
}

func (e *ErrStringTooLong) Unwrap() error { return ErrInvalidArgument }

// ErrBadRange indicates an inode range whose first bound is above its last.
//
// It unwraps to ErrInvalidArgument.
type ErrBadRange struct {
	First uint64
	Last  uint64
}

func (e *ErrBadRange) Error() string {
	return fmt.Sprintf("inode range [%d, %d] is inverted", e.First, e.Last)
}

func (e *ErrBadRange) Unwrap() error { return ErrInvalidArgument }
