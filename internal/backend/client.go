package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	// OnBreakerChange is called when the circuit breaker changes state.
	OnBreakerChange func(from, to string)
}

// Client is a thin HTTP client for the club backend's RPC gateway.
// Each actor method is exposed as POST /rpc/{method} with a JSON
// {"args": [...]} body. It handles Bearer session authentication,
// retry with exponential backoff on HTTP 429, and trips a circuit
// breaker after repeated transport failures.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a backend client. The baseURL is the root of the RPC
// gateway (e.g., http://localhost:4943) and token is the session token.
func NewClient(baseURL, token string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "clubhub-backend",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			// Application-level answers mean the backend is reachable.
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				IsAuthError(err) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if opts.OnBreakerChange != nil {
				opts.OnBreakerChange(from.String(), to.String())
			}
		},
	})

	return c
}

// Call invokes an RPC method with positional args and decodes the JSON
// result into result (which may be nil).
func (c *Client) Call(
	ctx context.Context,
	method string,
	result interface{},
	args ...interface{},
) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, method, args, result)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("calling %s: backend unavailable: %w", method, err)
	}
	return err
}

// do builds the request, handles auth, rate limiting with exponential
// backoff, and JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	args []interface{},
	result interface{},
) error {
	if args == nil {
		args = []interface{}{}
	}
	data, err := json.Marshal(rpcRequest{Args: args})
	if err != nil {
		return fmt.Errorf("marshaling %s args: %w", method, err)
	}

	url := c.baseURL + "/rpc/" + method

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, url, bytes.NewReader(data),
		)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing %s: %w", method, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading %s response body: %w", method, readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429) on %s", method)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{
				Method:  method,
				Message: errorMessage(respBody, "session expired or invalid"),
			}
		}

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", method, ErrNotFound)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &RPCError{
				Method:     method,
				StatusCode: resp.StatusCode,
				Message:    errorMessage(respBody, strings.TrimSpace(string(respBody))),
			}
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling %s response: %w", method, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// errorMessage extracts the backend's {"error": "..."} message.
func errorMessage(body []byte, fallback string) string {
	var e rpcError
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return fallback
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
