package httpretry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions(retries int) Options {
	return Options{
		Timeout:    2 * time.Second,
		MaxRetries: retries,
		MinBackoff: time.Millisecond,
		MaxBackoff: 2 * time.Millisecond,
	}
}

type trackedBody struct {
	io.Reader
	closed atomic.Bool
}

func (b *trackedBody) Close() error {
	b.closed.Store(true)
	return nil
}

// scripted replies with the given status codes in order, recording each body.
type scripted struct {
	codes  []int
	bodies []*trackedBody
}

func (s *scripted) RoundTrip(req *http.Request) (*http.Response, error) {
	code := s.codes[len(s.bodies)]
	body := &trackedBody{Reader: strings.NewReader(http.StatusText(code))}
	s.bodies = append(s.bodies, body)
	return &http.Response{StatusCode: code, Body: body, Request: req}, nil
}

func get(url string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *http.Response
		err  error
		want bool
	}{
		{"network error", nil, errors.New("connection reset"), true},
		{"ok", &http.Response{StatusCode: http.StatusOK}, nil, false},
		{"not found", &http.Response{StatusCode: http.StatusNotFound}, nil, false},
		{"throttled", &http.Response{StatusCode: http.StatusTooManyRequests}, nil, true},
		{"server error", &http.Response{StatusCode: http.StatusBadGateway}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Retryable(tt.resp, tt.err))
		})
	}
}

func TestDoClosesRetriedBodies(t *testing.T) {
	t.Parallel()

	rt := &scripted{codes: []int{http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusOK}}
	c := New(fastOptions(2))
	c.client.Transport = rt

	resp, err := c.Do(context.Background(), get("http://quotes.test/"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, rt.bodies, 3)
	assert.True(t, rt.bodies[0].closed.Load())
	assert.True(t, rt.bodies[1].closed.Load())
	assert.False(t, rt.bodies[2].closed.Load(), "the returned body belongs to the caller")
}

func TestDoReturnsLastFailureUnclosed(t *testing.T) {
	t.Parallel()

	rt := &scripted{codes: []int{http.StatusInternalServerError, http.StatusBadGateway}}
	c := New(fastOptions(1))
	c.client.Transport = rt

	resp, err := c.Do(context.Background(), get("http://quotes.test/"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Bad Gateway", string(body))

	require.Len(t, rt.bodies, 2)
	assert.True(t, rt.bodies[0].closed.Load())
	assert.False(t, rt.bodies[1].closed.Load())
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	rt := &scripted{codes: []int{http.StatusUnauthorized, http.StatusOK}}
	c := New(fastOptions(2))
	c.client.Transport = rt

	resp, err := c.Do(context.Background(), get("http://quotes.test/"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Len(t, rt.bodies, 1)
}

func TestDoReplaysRequestBody(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"symbol":"AAPL"}`, string(body))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	payload := []byte(`{"symbol":"AAPL"}`)
	resp, err := New(fastOptions(2)).Do(context.Background(), func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, srv.URL, bytes.NewReader(payload))
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewNormalizesOptions(t *testing.T) {
	t.Parallel()

	c := New(Options{MaxRetries: -1})
	assert.Equal(t, DefaultOptions().Timeout, c.client.Timeout)

	rt := &scripted{codes: []int{http.StatusServiceUnavailable}}
	c.client.Transport = rt
	resp, err := c.Do(context.Background(), get("http://quotes.test/"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Len(t, rt.bodies, 1)
}
