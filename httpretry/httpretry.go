// Package httpretry sends HTTP requests through a failsafe-go retry policy
// that retries network errors, throttling and server errors.
package httpretry

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// drainLimit caps how much of a discarded body is read so the connection
// can be reused.
const drainLimit = 64 << 10

type Options struct {
	Timeout    time.Duration
	MaxRetries int
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func DefaultOptions() Options {
	return Options{
		Timeout:    10 * time.Second,
		MaxRetries: 2,
		MinBackoff: 100 * time.Millisecond,
		MaxBackoff: 2 * time.Second,
	}
}

// Client wraps an http.Client with a retry pipeline.
type Client struct {
	client   *http.Client
	pipeline failsafe.Executor[*http.Response]
}

func New(opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = def.MinBackoff
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = opts.MinBackoff
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	retryPolicy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(Retryable).
		WithBackoff(opts.MinBackoff, opts.MaxBackoff).
		WithMaxRetries(opts.MaxRetries).
		OnRetryScheduled(func(e failsafe.ExecutionScheduledEvent[*http.Response]) {
			discard(e.LastResult())
		}).
		ReturnLastFailure().
		Build()

	return &Client{
		client:   &http.Client{Timeout: opts.Timeout},
		pipeline: failsafe.With[*http.Response](retryPolicy),
	}
}

// Retryable reports whether an attempt failed in a way worth retrying.
func Retryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

// Do sends the request built by newReq, building a fresh request for every
// attempt so request bodies replay. Responses that are retried are closed
// here. The caller closes the body of the returned response, which is the
// last failure when retries run out.
func (c *Client) Do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	return c.pipeline.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := newReq(ctx)
		if err != nil {
			return nil, err
		}
		return c.client.Do(req)
	})
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	_ = resp.Body.Close()
}
