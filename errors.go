package gcptr

import "errors"

// PointerError reports a dereference through a null or out-of-bounds
// handle, invariant H4's checked operations.
type PointerError struct {
	Msg string
}

func (e *PointerError) Error() string { return "gcptr: " + e.Msg }

// AllocationError wraps a failure partway through Alloc/AllocArray: an
// error returned by a constructor or a panic recovered from Bind. A
// failure of the backing Go allocation itself is not reported through it;
// the Go runtime treats running out of memory as fatal.
type AllocationError struct {
	Err error
}

func (e *AllocationError) Error() string { return "gcptr: allocation failed: " + e.Err.Error() }
func (e *AllocationError) Unwrap() error { return e.Err }

var (
	errNullHandle  = errors.New("gcptr: null handle")
	errOutOfBounds = errors.New("gcptr: index out of bounds")
)
