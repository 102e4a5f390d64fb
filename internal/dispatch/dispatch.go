// Package dispatch tries a generation request against every (credential,
// model) pair until one succeeds.
//
// Credentials are the outer loop and models the inner one, so every model is
// tried with a credential before moving on to the next credential. A fixed
// delay separates credentials; models of the same credential are tried back
// to back.
package dispatch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/dossier/internal/proto"
)

// DefaultDelay is the pause between two credentials.
const DefaultDelay = 2 * time.Second

// Caller performs a single upstream generation call.
type Caller interface {
	Generate(ctx context.Context, credential, model string, request proto.Request) (string, error)
}

// CallerFunc adapts a function to [Caller].
type CallerFunc func(ctx context.Context, credential, model string, request proto.Request) (string, error)

// Generate implements [Caller].
func (f CallerFunc) Generate(ctx context.Context, credential, model string, request proto.Request) (string, error) {
	return f(ctx, credential, model, request)
}

// Attempt is one (credential, model) pairing submitted upstream.
type Attempt struct {
	// Credential is the 1-based position of the credential in the pool as
	// given to [Dispatcher.Dispatch], regardless of shuffling.
	Credential int
	Model      string
	Err        error
	Duration   time.Duration
}

// Failed reports whether the attempt returned an error.
func (a Attempt) Failed() bool { return a.Err != nil }

func (a Attempt) String() string {
	if a.Err == nil {
		return fmt.Sprintf("key #%d with %s: ok", a.Credential, a.Model)
	}
	return fmt.Sprintf("key #%d with %s: %v", a.Credential, a.Model, a.Err)
}

// Outcome is a successful dispatch.
type Outcome struct {
	Text       string
	Credential int
	Model      string

	// Attempts holds every attempt made, the successful one last.
	Attempts []Attempt
}

// Failures returns the attempts that failed before the successful one.
func (o Outcome) Failures() []Attempt {
	var result []Attempt
	for _, a := range o.Attempts {
		if a.Failed() {
			result = append(result, a)
		}
	}
	return result
}

// Option configures a [Dispatcher].
type Option func(*Dispatcher)

// WithDelay sets the pause between credentials. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(dp *Dispatcher) {
		dp.delay = max(d, 0)
	}
}

// WithShuffle enables or disables shuffling the credential order.
func WithShuffle(shuffle bool) Option {
	return func(dp *Dispatcher) {
		dp.shuffle = shuffle
	}
}

// WithRand sets the random source used for shuffling.
// A [rand.Rand] is not safe for concurrent use.
func WithRand(r *rand.Rand) Option {
	return func(dp *Dispatcher) {
		dp.rand = r
	}
}

// WithAttemptHook registers a function called after every failed attempt.
func WithAttemptHook(fn func(Attempt)) Option {
	return func(dp *Dispatcher) {
		dp.onAttempt = fn
	}
}

// Dispatcher holds the failover policy. It keeps no state between calls to
// [Dispatcher.Dispatch].
type Dispatcher struct {
	caller    Caller
	delay     time.Duration
	shuffle   bool
	rand      *rand.Rand
	onAttempt func(Attempt)
	sleep     func(context.Context, time.Duration) error
	now       func() time.Time
}

// New returns a [Dispatcher] that shuffles credentials and waits
// [DefaultDelay] between them unless told otherwise.
func New(caller Caller, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		caller:  caller,
		delay:   DefaultDelay,
		shuffle: true,
		sleep:   sleep,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends request using each credential and model in turn and returns
// the first success.
//
// It fails with [ErrNoCredentials] or [ErrNoModels] before making any call if
// either list is empty, and with an [*ExhaustedError] once every pair has
// failed. Neither input slice is modified.
func (d *Dispatcher) Dispatch(ctx context.Context, pool, models []string, request proto.Request) (Outcome, error) {
	if len(pool) == 0 {
		return Outcome{}, ErrNoCredentials
	}
	if len(models) == 0 {
		return Outcome{}, ErrNoModels
	}

	attempts := make([]Attempt, 0, len(pool)*len(models))
	for n, idx := range d.order(len(pool)) {
		if n > 0 && d.delay > 0 {
			if err := d.sleep(ctx, d.delay); err != nil {
				return Outcome{}, &InterruptedError{Attempts: attempts, Err: err}
			}
		}
		credential := pool[idx]
		for _, model := range models {
			start := d.now()
			text, err := d.caller.Generate(ctx, credential, model, request)
			attempt := Attempt{
				Credential: idx + 1,
				Model:      model,
				Err:        err,
				Duration:   d.now().Sub(start),
			}
			attempts = append(attempts, attempt)
			if err == nil {
				return Outcome{
					Text:       text,
					Credential: attempt.Credential,
					Model:      model,
					Attempts:   attempts,
				}, nil
			}
			if d.onAttempt != nil {
				d.onAttempt(attempt)
			}
		}
	}

	return Outcome{}, &ExhaustedError{Attempts: attempts}
}

// order returns the pool indexes in the order they should be tried.
func (d *Dispatcher) order(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if !d.shuffle {
		return idx
	}
	swap := func(i, j int) { idx[i], idx[j] = idx[j], idx[i] }
	if d.rand != nil {
		d.rand.Shuffle(n, swap)
	} else {
		rand.Shuffle(n, swap)
	}
	return idx
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	case <-t.C:
		return nil
	}
}
