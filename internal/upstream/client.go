package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when a dependency (document store or third-party API)
// could not be reached, answered with a non-success status or returned a payload
// that does not match the expected schema.
var ErrUnavailable = errors.New("upstream unavailable")

// DefaultTimeout bounds every upstream round trip.
const DefaultTimeout = 5 * time.Second

// StatusError carries a non-success HTTP status from an upstream API.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Service, e.Code, e.Body)
}

// Unwrap lets errors.Is(err, ErrUnavailable) match status errors.
func (e *StatusError) Unwrap() error {
	return ErrUnavailable
}

// Invalid wraps a schema mismatch for the given service.
func Invalid(service, reason string) error {
	return fmt.Errorf("%w: %s: invalid response: %s", ErrUnavailable, service, reason)
}

// Observer receives the outcome of each upstream call. Used for metrics.
type Observer func(service, outcome string)

// RequestBuilder builds a fresh request for every attempt so bodies can be re-read.
type RequestBuilder func(ctx context.Context) (*http.Request, error)

// Client performs JSON calls against a third-party API with a bounded timeout
// and a single retry for transient failures.
type Client struct {
	service  string
	http     *http.Client
	logger   *zap.Logger
	retries  uint64
	backoff  time.Duration
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRetries overrides the number of retries for transient failures.
func WithRetries(n uint64, backoff time.Duration) Option {
	return func(cl *Client) {
		cl.retries = n
		cl.backoff = backoff
	}
}

// WithObserver registers an outcome callback.
func WithObserver(o Observer) Option {
	return func(cl *Client) { cl.observer = o }
}

// NewClient creates a client for the named service.
func NewClient(service string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		service: service,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logger,
		retries: 1,
		backoff: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HTTPClient returns the underlying http.Client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Do executes the request and decodes a JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, build RequestBuilder, out any) error {
	b := retry.WithMaxRetries(c.retries, retry.NewConstant(max(c.backoff, time.Millisecond)))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		return c.attempt(ctx, build, out)
	})
	if err != nil {
		c.observe("error")
		c.logger.Warn("upstream call failed",
			zap.String("service", c.service),
			zap.Error(err),
		)

		if errors.Is(err, ErrUnavailable) {
			return err
		}

		return fmt.Errorf("%w: %s: %w", ErrUnavailable, c.service, err)
	}

	c.observe("ok")

	return nil
}

func (c *Client) attempt(ctx context.Context, build RequestBuilder, out any) error {
	req, err := build(ctx)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := &StatusError{Service: c.service, Code: resp.StatusCode, Body: string(body)}

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(statusErr)
		}

		return statusErr
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Invalid(c.service, err.Error())
	}

	return nil
}

func (c *Client) observe(outcome string) {
	if c.observer != nil {
		c.observer(c.service, outcome)
	}
}
