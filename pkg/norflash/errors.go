package norflash

import (
	"errors"
	"fmt"
)

// ErrorKind is the generic kind every NOR flash error maps onto. The zero
// value is not a kind, KindOf returns it for a nil error.
type ErrorKind int

const (
	noError ErrorKind = iota

	// NotAligned means the offset or length is not a multiple of the required granularity.
	NotAligned
	// OutOfBounds means the range exceeds the capacity, or from > to for erase.
	OutOfBounds
	// DirtyWrite means a cell was already written or cannot hold the requested value.
	DirtyWrite
	// Other is an implementation specific error.
	Other
)

func (k ErrorKind) String() string {
	switch k {
	case noError:
		return "none"
	case NotAligned:
		return "not aligned"
	case OutOfBounds:
		return "out of bounds"
	case DirtyWrite:
		return "dirty write"
	default:
		return "other"
	}
}

func (k ErrorKind) Error() string {
	switch k {
	case noError:
		return "no error"
	case NotAligned:
		return "arguments are not properly aligned"
	case OutOfBounds:
		return "arguments are out of bounds"
	case DirtyWrite:
		return "dirty write operation"
	default:
		return "an implementation specific error occurred"
	}
}

// Kind lets ErrorKind be returned directly as an Error.
func (k ErrorKind) Kind() ErrorKind {
	return k
}

// Error is implemented by all errors returned from NOR flash devices so generic
// code can reason about failures without knowing the concrete device.
type Error interface {
	error
	Kind() ErrorKind
}

var _ Error = NotAligned

// KindOf returns the kind of the first Error in err's chain, or Other when
// there is none. A nil error has no kind and returns 0.
func KindOf(err error) ErrorKind {
	if err == nil {
		return noError
	}

	var flashErr Error
	if errors.As(err, &flashErr) {
		return flashErr.Kind()
	}

	return Other
}

// DeviceError wraps an environment failure (file, mapping) of a device.
type DeviceError struct {
	Op   string
	kind ErrorKind
	Err  error
}

var _ Error = (*DeviceError)(nil)

func newDeviceError(op string, kind ErrorKind, err error) *DeviceError {
	return &DeviceError{
		Op:   op,
		kind: kind,
		Err:  err,
	}
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("flash %s: %s", e.Op, e.Err)
}

func (e *DeviceError) Kind() ErrorKind {
	return e.kind
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
