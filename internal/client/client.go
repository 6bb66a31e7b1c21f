// Package client talks to the remote storefront API that owns the catalog,
// live stock, coupons, delivery settings and saved addresses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("not found")

type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerTimeout  time.Duration
	BreakerFailures uint32
}

// Client implements the catalog, stock, coupon, delivery and address ports.
// Each collaborator has its own circuit breaker so one failing endpoint does
// not open the others.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	catalog  *gobreaker.CircuitBreaker[[]byte]
	stock    *gobreaker.CircuitBreaker[[]byte]
	coupon   *gobreaker.CircuitBreaker[[]byte]
	delivery *gobreaker.CircuitBreaker[[]byte]
	address  *gobreaker.CircuitBreaker[[]byte]
}

func New(cfg Config, logger *zap.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.Timeout,
	}, logger)
}

func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}

	c.catalog = c.newBreaker("catalog", cfg)
	c.stock = c.newBreaker("stock", cfg)
	c.coupon = c.newBreaker("coupon", cfg)
	c.delivery = c.newBreaker("delivery", cfg)
	c.address = c.newBreaker("address", cfg)

	return c
}

func (c *Client) newBreaker(name string, cfg Config) *gobreaker.CircuitBreaker[[]byte] {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    name,
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// isSuccessful counts only transport failures and 5xx answers against the
// breaker.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

func (c *Client) do(ctx context.Context, cb *gobreaker.CircuitBreaker[[]byte], method, path string, in any) ([]byte, error) {
	return cb.Execute(func() ([]byte, error) {
		var body io.Reader
		if in != nil {
			payload, err := json.Marshal(in)
			if err != nil {
				return nil, fmt.Errorf("json.Marshal: %w", err)
			}
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http.Do: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("io.ReadAll: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return data, ErrNotFound
		case resp.StatusCode >= http.StatusBadRequest:
			return data, &StatusError{StatusCode: resp.StatusCode, Body: data}
		}

		return data, nil
	})
}

func decode[T any](data []byte) (T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return out, nil
}
