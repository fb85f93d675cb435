package collect

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// maxAttempts bounds retries for transient failures: the initial call plus
// two retries.
const maxAttempts = 3

// classify maps an API failure to an unavailability reason. Anything
// without a recognizable HTTP status is treated as transient.
func classify(resp *gitlab.Response, err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonTransient
	}
	if resp == nil || resp.Response == nil {
		return ReasonTransient
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ReasonAuthRequired
	case http.StatusForbidden:
		return ReasonForbidden
	case http.StatusNotFound:
		return ReasonNotFound
	case http.StatusTooManyRequests:
		return ReasonRateLimited
	}
	return ReasonTransient
}

// unavailable carries the classified reason out of the retry loop.
type unavailable struct {
	reason Reason
	err    error
}

func (u *unavailable) Error() string {
	return string(u.reason) + ": " + u.err.Error()
}

// fetch runs one query operation, retrying transient failures with bounded
// exponential backoff. Non-transient failures are returned immediately as
// the classified QueryResult.
func fetch(ctx context.Context, op func() (*gitlab.Response, error)) QueryResult {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 2 * time.Second

	err := backoff.Retry(func() error {
		resp, opErr := op()
		if opErr == nil {
			return nil
		}
		reason := classify(resp, opErr)
		if reason == ReasonTransient {
			return opErr
		}
		return backoff.Permanent(&unavailable{reason: reason, err: opErr})
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx))

	if err == nil {
		return QueryResult{Available: true}
	}

	var u *unavailable
	if errors.As(err, &u) {
		return QueryResult{Reason: u.reason, Detail: u.err.Error()}
	}
	return QueryResult{Reason: ReasonTransient, Detail: err.Error()}
}
