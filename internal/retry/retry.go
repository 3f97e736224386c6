// Package retry applies a bounded exponential backoff policy around external calls.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how often and how slowly a failing call is retried.
// Delays start at BaseDelay and double up to MaxDelay.
type Policy struct {
	MaxAttempts int           `json:"max_attempts" mapstructure:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay" mapstructure:"base_delay"`
	MaxDelay    time.Duration `json:"max_delay" mapstructure:"max_delay"`
}

// DefaultPolicy returns three attempts waiting 4s then 8s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   4 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Notify is called before each wait with the attempt that just failed.
type Notify func(attempt int, err error, wait time.Duration)

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(p.attempts()-1))
}

// Delays returns the waits the policy inserts between attempts.
func (p Policy) Delays() []time.Duration {
	b := p.backOff()
	var delays []time.Duration
	for {
		d := b.NextBackOff()
		if d == backoff.Stop {
			return delays
		}
		delays = append(delays, d)
	}
}

// Do calls op until it succeeds, fails with an error retryable rejects,
// the attempt budget is spent, or ctx is done. It returns the number of
// attempts made and the last error.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, op func(context.Context) error, notify Notify) (int, error) {
	attempts := 0
	operation := func() error {
		attempts++
		err := op(ctx)
		if err != nil && (retryable == nil || !retryable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}

	var onRetry func(error, time.Duration)
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			notify(attempts, err, wait)
		}
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(p.backOff(), ctx), onRetry)
	return attempts, err
}
