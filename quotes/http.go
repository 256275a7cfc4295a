package quotes

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rustyeddy/marginpilot/httpretry"
)

// HTTPOptions tunes the client shared by the HTTP sources.
type HTTPOptions = httpretry.Options

func DefaultHTTPOptions() HTTPOptions {
	return httpretry.DefaultOptions()
}

// APIError is a non-2xx upstream response.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quotes: upstream status=%d body=%s", e.StatusCode, string(e.Body))
}

type httpClient struct {
	retry *httpretry.Client
}

func newHTTPClient(opts HTTPOptions) *httpClient {
	return &httpClient{retry: httpretry.New(opts)}
}

// get issues a GET through the retry pipeline and returns the body of a
// 2xx response.
func (c *httpClient) get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	resp, err := c.retry.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("quotes: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("quotes: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}
