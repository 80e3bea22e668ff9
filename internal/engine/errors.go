package engine

import (
	"errors"
	"fmt"
)

// ErrEngineFailure marks every error that means the engine could not
// produce a continuation.
var ErrEngineFailure = errors.New("engine: generation failed")

// Failure carries the context of a failed continuation. It matches both
// ErrEngineFailure and its cause under errors.Is.
type Failure struct {
	Direction Direction
	Frame     int
	Err       error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("engine: %s generation failed at frame %d: %v", f.Direction, f.Frame, f.Err)
}

func (f *Failure) Unwrap() []error {
	return []error{ErrEngineFailure, f.Err}
}
