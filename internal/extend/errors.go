package extend

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSeed rejects an empty seed, a nil ensemble or a non-positive
	// ensemble length before any attempt.
	ErrInvalidSeed = errors.New("extend: invalid seed trajectory")

	// ErrInvalidConfig rejects a Config whose attempt schedule is unusable.
	ErrInvalidConfig = errors.New("extend: invalid configuration")

	// ErrExtensionExhausted means every attempt finished without a
	// qualifying sub-trajectory. The caller may retry with a larger budget.
	ErrExtensionExhausted = errors.New("extend: attempts exhausted without a qualifying sub-trajectory")

	// ErrNoTransition means seeding never observed a crossing into the
	// target state.
	ErrNoTransition = errors.New("extend: no transition found")
)

// ExhaustedError reports how far the retry loop got before giving up.
type ExhaustedError struct {
	Attempts int
	MaxLen   int
	Length   int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("extend: no %d-frame sub-trajectory after %d attempts (max_len reached %d)", e.Length, e.Attempts, e.MaxLen)
}

func (e *ExhaustedError) Unwrap() error { return ErrExtensionExhausted }
