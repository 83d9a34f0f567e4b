// ABOUTME: Exponential backoff for calls that can fail transiently.
// ABOUTME: Classifies HTTP statuses and network errors; honors Retry-After on 429.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/log"
)

// Defaults used when a Policy leaves fields unset.
const (
	DefaultMaxRetries  = 3
	DefaultBackoffBase = 750 * time.Millisecond
)

// transientStatuses are HTTP statuses worth retrying.
var transientStatuses = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// StatusError is implemented by errors that carry an HTTP status code.
type StatusError interface {
	error
	HTTPStatus() int
}

// RetryAfterError is implemented by rate-limit errors that carry a server
// supplied wait.
type RetryAfterError interface {
	error
	RetryAfter() (time.Duration, bool)
}

// TransientError is returned once every attempt failed transiently.
type TransientError struct {
	Target   string
	Attempts int
	Cause    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempts: %v", e.Target, e.Attempts, e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// Policy configures retries. MaxRetries counts total attempts.
type Policy struct {
	MaxRetries  int
	BackoffBase time.Duration

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each wait, e.g. to count retries.
	OnRetry func(target string, attempt int, wait time.Duration)
}

// DefaultPolicy returns the standard three attempt, 0.75s policy.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BackoffBase: DefaultBackoffBase}
}

// IsTransient reports whether err is a retryable status or a network failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se StatusError
	if errors.As(err, &se) {
		return transientStatuses[se.HTTPStatus()]
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// Backoff returns the wait after a failed attempt (0-based).
func (p Policy) Backoff(attempt int) time.Duration {
	return p.BackoffBase * time.Duration(1<<attempt)
}

// Do runs fn until it succeeds, fails permanently, or attempts run out.
// Non-transient errors are returned unchanged. Exhaustion returns a
// *TransientError wrapping the last cause.
func (p Policy) Do(ctx context.Context, target string, fn func(ctx context.Context) error) error {
	attempts := p.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := log.WithComponent("retry")

	var last error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !IsTransient(err) {
			return err
		}
		last = err
		if attempt == attempts-1 {
			break
		}

		wait := p.Backoff(attempt)
		var ra RetryAfterError
		if errors.As(err, &ra) {
			if d, ok := ra.RetryAfter(); ok {
				wait = d
			}
		}

		logger.Warn().
			Err(err).
			Str("target", target).
			Int("attempt", attempt+1).
			Int("max_attempts", attempts).
			Dur("wait", wait).
			Msg("transient failure, retrying")

		if p.OnRetry != nil {
			p.OnRetry(target, attempt+1, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	logger.Error().Err(last).Str("target", target).Int("attempts", attempts).Msg("retries exhausted")
	return &TransientError{Target: target, Attempts: attempts, Cause: last}
}

// ParseRetryAfter reads a Retry-After header given in seconds (integer or
// decimal) or as an HTTP date.
func ParseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
