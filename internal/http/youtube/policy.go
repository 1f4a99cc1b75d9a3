package youtube

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"net"
	"slices"
	"syscall"
	"time"

	"google.golang.org/api/googleapi"
)

const (
	DefaultMaxRetries = 10
)

var (
	DefaultRetriableStatusCodes = []int{500, 502, 503, 504}

	// DefaultRetriableFaults are the transport level errors which are
	// always considered transient. Any *net.OpError and any network
	// timeout is also retried.
	DefaultRetriableFaults = []error{
		io.ErrUnexpectedEOF,
		io.EOF,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.ECONNREFUSED,
		syscall.EPIPE,
		ErrMalformedResponse,
	}
)

// Policy controls how the Uploader classifies and retries failures.
// Jitter and Sleep may be replaced for deterministic tests.
type Policy struct {
	MaxRetries           int
	RetriableStatusCodes []int
	RetriableFaults      []error

	// Jitter returns a value in [0, 1) used to scale each backoff.
	Jitter func() float64

	// Sleep suspends the upload between retries. It must return
	// early with the context error if the context is cancelled.
	Sleep func(context.Context, time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:           DefaultMaxRetries,
		RetriableStatusCodes: slices.Clone(DefaultRetriableStatusCodes),
		RetriableFaults:      slices.Clone(DefaultRetriableFaults),
		Jitter:               rand.Float64,
		Sleep:                sleepContext,
	}
}

// Backoff returns the randomised delay before the given retry,
// uniformly distributed over [0, 2^retry) seconds.
func (policy Policy) Backoff(retry int) time.Duration {
	jitter := rand.Float64
	if policy.Jitter != nil {
		jitter = policy.Jitter
	}

	seconds := jitter() * math.Pow(2, float64(retry))
	return time.Duration(seconds * float64(time.Second))
}

// MaxBackoff is the exclusive upper bound of Backoff for the given retry.
func (policy Policy) MaxBackoff(retry int) time.Duration {
	return time.Duration(math.Pow(2, float64(retry))) * time.Second
}

// IsRetriable reports whether the error is a transient condition.
// Context cancellation is never retriable.
func (policy Policy) IsRetriable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return slices.Contains(policy.RetriableStatusCodes, apiErr.Code)
	}

	for _, fault := range policy.RetriableFaults {
		if errors.Is(err, fault) {
			return true
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (policy Policy) sleep(ctx context.Context, d time.Duration) error {
	if policy.Sleep != nil {
		return policy.Sleep(ctx, d)
	}

	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
