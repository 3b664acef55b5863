// Package clients holds the HTTP clients for the peer services this service
// depends on. Every call applies a bounded timeout and runs through a circuit
// breaker; callers receive ErrPeerUnavailable instead of blocking on a
// degraded peer.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrPeerUnavailable indicates the peer service could not be reached or
	// the circuit to it is open.
	ErrPeerUnavailable = errors.New("clients: peer service unavailable")
	// ErrPeerNotFound indicates the peer responded 404 for the resource.
	ErrPeerNotFound = errors.New("clients: resource not found")
)

const defaultRequestTimeout = 3 * time.Second

// Option customises a peer client.
type Option func(*httpPeer)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *httpPeer) {
		if client != nil {
			p.client = client
		}
	}
}

// WithRequestTimeout bounds each individual call.
func WithRequestTimeout(d time.Duration) Option {
	return func(p *httpPeer) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// httpPeer is the shared transport for one peer service: base URL, timeout
// and a dedicated circuit breaker.
type httpPeer struct {
	name    string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

func newHTTPPeer(name, baseURL string, opts ...Option) *httpPeer {
	p := &httpPeer{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		timeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return p
}

// do executes one HTTP exchange through the breaker and decodes a JSON body
// into out when out is non-nil. 404 responses surface as ErrPeerNotFound and
// do not count against the breaker.
func (p *httpPeer) do(ctx context.Context, method, path string, body any, out any) error {
	result, err := p.breaker.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("%s: encode request: %w", p.name, err)
			}
			reader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(callCtx, method, p.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("%s: build request: %w", p.name, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return notFoundMarker{}, nil
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("%s: unexpected status %d", p.name, resp.StatusCode)
		}

		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, nil
		}
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: read response: %w", p.name, err)
		}
		return payload, nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPeerUnavailable, err)
	}

	if _, ok := result.(notFoundMarker); ok {
		return fmt.Errorf("%w: %s %s", ErrPeerNotFound, method, path)
	}
	if out == nil {
		return nil
	}
	payload, _ := result.([]byte)
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", p.name, err)
	}
	return nil
}

type notFoundMarker struct{}
