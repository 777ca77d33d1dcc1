package embedding

import (
	"context"
	"errors"
	"math"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// RetryPolicy configures a ResilientEncoder. MaxRetries 0 disables retries
// and RequestsPerSecond 0 disables rate limiting; other zero values select
// defaults.
type RetryPolicy struct {
	MaxRetries        int
	InitialInterval   time.Duration // default 500ms
	MaxInterval       time.Duration // default 10s
	RequestsPerSecond float64
	BreakerFailures   uint32        // consecutive failures that open the breaker, default 5
	BreakerCooldown   time.Duration // time the breaker stays open, default 30s
}

// ResilientEncoder guards a remote encoder with a rate limit, a circuit
// breaker and exponential-backoff retries of transient failures. It is safe
// for concurrent use; all callers share the limiter and the breaker.
type ResilientEncoder struct {
	inner   Encoder
	policy  RetryPolicy
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewResilientEncoder wraps enc.
func NewResilientEncoder(enc Encoder, policy RetryPolicy) *ResilientEncoder {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = 500 * time.Millisecond
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = 10 * time.Second
	}
	if policy.BreakerFailures == 0 {
		policy.BreakerFailures = 5
	}
	if policy.BreakerCooldown <= 0 {
		policy.BreakerCooldown = 30 * time.Second
	}

	r := &ResilientEncoder{inner: enc, policy: policy}
	if policy.RequestsPerSecond > 0 {
		burst := int(math.Max(1, math.Ceil(policy.RequestsPerSecond)))
		r.limiter = rate.NewLimiter(rate.Limit(policy.RequestsPerSecond), burst)
	}
	failures := policy.BreakerFailures
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        enc.Model(),
		MaxRequests: 1,
		Timeout:     policy.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})
	return r
}

// Model reports the wrapped encoder's model.
func (r *ResilientEncoder) Model() string {
	return r.inner.Model()
}

// Encode calls the wrapped encoder, retrying transient failures. An open
// breaker fails immediately with gobreaker.ErrOpenState.
func (r *ResilientEncoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	var out [][]float64
	attempt := func() error {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		res, err := r.breaker.Execute(func() (interface{}, error) {
			return r.inner.Encode(ctx, texts)
		})
		if err != nil {
			if !retryable(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = res.([][]float64)
		return nil
	}

	if err := backoff.Retry(attempt, r.newBackOff(ctx)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ResilientEncoder) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.policy.InitialInterval
	exp.MaxInterval = r.policy.MaxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.policy.MaxRetries)), ctx)
}

// retryable reports whether err is worth another attempt: throttling,
// server errors and network failures are; everything else is not.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
