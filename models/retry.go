package models

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rmolinamir/alphawave/types"
	"go.uber.org/zap"
)

// RetryPolicy configures exponential-backoff retries around a model call.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// disables retrying.
	MaxRetries int

	// InitialDelay is the delay before the first retry. Defaults to 1s.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay. Defaults to 30s.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor. Defaults to 2.
	Multiplier float64

	// Jitter adds ±25% random jitter to each delay so concurrent clients
	// don't retry in lockstep.
	Jitter bool

	// OnRetry is called before each retry with the attempt number, the error
	// being retried, and the delay about to be applied.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy returns the policy used when a client enables retries
// without configuring them.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// retryer runs a function under a RetryPolicy, retrying only errors marked
// retryable by types.IsRetryable.
type retryer struct {
	policy *RetryPolicy
	logger *zap.Logger
}

func newRetryer(policy *RetryPolicy, logger *zap.Logger) *retryer {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 1 * time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryer{policy: policy, logger: logger}
}

// do runs fn until it succeeds, returns a non-retryable error, or the retry
// budget runs out.
func (r *retryer) do(ctx context.Context, fn func() (*types.PromptResponse, error)) (*types.PromptResponse, error) {
	var lastResp *types.PromptResponse
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.delay(attempt)
			r.logger.Debug("retrying model request",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", r.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr, delay)
			}
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		resp, err := fn()
		if err != nil {
			return nil, err
		}
		lastResp = resp

		if resp.IsSuccess() || resp.Error == nil || !resp.Error.Retryable {
			return resp, nil
		}
		lastErr = resp.Error
	}

	r.logger.Warn("model retry budget exhausted",
		zap.Int("attempts", r.policy.MaxRetries+1),
		zap.Error(lastErr),
	)
	return lastResp, nil
}

func (r *retryer) delay(attempt int) time.Duration {
	delay := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if delay > float64(r.policy.MaxDelay) {
		delay = float64(r.policy.MaxDelay)
	}
	if r.policy.Jitter {
		jitter := delay * 0.25
		delay = delay + (rand.Float64()*2-1)*jitter
	}
	if delay < float64(r.policy.InitialDelay) {
		delay = float64(r.policy.InitialDelay)
	}
	return time.Duration(delay)
}
