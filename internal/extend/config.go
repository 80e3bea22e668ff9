package extend

import (
	"fmt"
	"time"
)

const (
	DefaultBaseLength  = 200
	DefaultIncrement   = 50
	DefaultMaxAttempts = 5
)

type Config struct {
	// BaseLength caps each continuation on the first attempt.
	BaseLength int
	// Increment is added to the cap on every further attempt.
	Increment   int
	MaxAttempts int
	// AttemptTimeout bounds a whole attempt; an expired attempt counts as
	// a miss. Zero disables it.
	AttemptTimeout time.Duration
	// Concurrent runs the forward and backward continuations in parallel.
	Concurrent bool
	// Seed drives the per-continuation engine seeds.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		BaseLength:  DefaultBaseLength,
		Increment:   DefaultIncrement,
		MaxAttempts: DefaultMaxAttempts,
	}
}

func (c Config) Validate() error {
	if c.BaseLength < 2 {
		return fmt.Errorf("%w: base length must be at least 2, got %d", ErrInvalidConfig, c.BaseLength)
	}
	if c.Increment <= 0 {
		return fmt.Errorf("%w: increment must be positive, got %d", ErrInvalidConfig, c.Increment)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.AttemptTimeout < 0 {
		return fmt.Errorf("%w: attempt timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// MaxLen is the continuation cap used on the given zero-based attempt.
func (c Config) MaxLen(attempt int) int {
	return c.BaseLength + attempt*c.Increment
}
