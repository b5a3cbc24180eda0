// Package backend is the REST client for the shop backend. It implements
// the domain repositories over HTTP with a jx wire codec.
package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/brew-pos/pkg/httptransport"
)

const maxBodySize = 8 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8080".
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// BreakerFailures is the number of consecutive transport or 5xx
	// failures that opens the breaker. Zero means 5.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open. Zero means 30s.
	BreakerCooldown time.Duration

	Transport      http.RoundTripper
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Logger         *zap.Logger
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
	cb   *gobreaker.CircuitBreaker[[]byte]
}

// New creates a Client. tokens supplies the bearer credential per request.
func New(cfg Config, tokens httptransport.TokenSource) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("base URL %q must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "brew-pos"
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}

	var otelOpts []otelhttp.Option
	if cfg.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(cfg.MeterProvider))
	}
	transport := httptransport.Wrap(
		otelhttp.NewTransport(cfg.Transport, otelOpts...),
		httptransport.RequestID(),
		httptransport.UserAgent(cfg.UserAgent),
		httptransport.Bearer(tokens),
		httptransport.Logging(),
	)

	failures := cfg.BreakerFailures
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !breakerFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	return &Client{
		base: base,
		http: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		cb:   cb,
	}, nil
}

// BreakerState reports the circuit breaker state: "closed", "half-open" or
// "open".
func (c *Client) BreakerState() string {
	return c.cb.State().String()
}

// Ping checks that the backend answers. Any response below 500 counts as
// reachable. Ping bypasses the breaker.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.exchange(ctx, request{method: http.MethodGet, path: "/api/auth/me"})
	var apiErr *Error
	if errors.As(err, &apiErr) && !apiErr.Temporary() {
		return nil
	}
	return err
}

type request struct {
	method string
	path   string
	query  url.Values
	body   func(e *jx.Encoder)
}

func (r request) String() string { return r.method + " " + r.path }

// do performs r through the breaker and hands the response body to decode.
func (c *Client) do(ctx context.Context, r request, decode func(d *jx.Decoder) error) error {
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.exchange(ctx, r)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return errors.Wrap(ErrUnavailable, r.String())
		}
		return err
	}
	if decode == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := decode(jx.DecodeBytes(body)); err != nil {
		return &ResponseError{Op: r.String(), Err: err}
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, r request) ([]byte, error) {
	u := c.base.JoinPath(r.path)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var reqBody io.Reader
	if r.body != nil {
		var e jx.Encoder
		r.body(&e)
		reqBody = bytes.NewReader(e.Bytes())
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), reqBody)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s", r)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: r.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Op: r.String(), Err: errors.Wrap(err, "read body")}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, body)
	}
	return body, nil
}
