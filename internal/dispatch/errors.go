package dispatch

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the parent of every error returned before any call is
// made because the inputs cannot work.
var ErrConfiguration = errors.New("configuration error")

// Configuration errors.
var (
	ErrNoCredentials = fmt.Errorf("%w: no credential available", ErrConfiguration)
	ErrNoModels      = fmt.Errorf("%w: no model candidates", ErrConfiguration)
)

// ErrExhausted matches any [*ExhaustedError] with [errors.Is].
var ErrExhausted = errors.New("all attempts failed")

// ExhaustedError is returned when every (credential, model) pair failed.
type ExhaustedError struct {
	Attempts []Attempt
}

// Count returns the number of attempts made.
func (e *ExhaustedError) Count() int { return len(e.Attempts) }

// Last returns the final attempt.
func (e *ExhaustedError) Last() Attempt {
	if len(e.Attempts) == 0 {
		return Attempt{}
	}
	return e.Attempts[len(e.Attempts)-1]
}

func (e *ExhaustedError) Error() string {
	if last := e.Last(); last.Err != nil {
		return fmt.Sprintf("all %d attempts failed, last error: %v", e.Count(), last.Err)
	}
	return fmt.Sprintf("all %d attempts failed", e.Count())
}

// Is implements errors.Is.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// Unwrap exposes every attempt error so callers can look for upstream error
// types with [errors.As].
func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// InterruptedError is returned when the context ends while waiting between
// credentials.
type InterruptedError struct {
	Attempts []Attempt
	Err      error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("dispatch interrupted after %d attempts: %v", len(e.Attempts), e.Err)
}

func (e *InterruptedError) Unwrap() error { return e.Err }
