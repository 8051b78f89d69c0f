// Package dialogue is the HTTP client for the training backend: session
// lifecycle and per-turn dialogue exchanges.
package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultExchangeTimeout bounds one dialogue exchange. The backend calls
	// an LLM per turn, so this is generous but still finite.
	DefaultExchangeTimeout = 30 * time.Second
	// DefaultCompleteTimeout bounds session completion (scorecard
	// generation runs another LLM pass server-side).
	DefaultCompleteTimeout = 60 * time.Second
)

// Client talks to the dialogue backend. Failures are returned to the caller
// and never retried here; turn-abandonment policy belongs to the
// orchestrator.
type Client struct {
	baseURL    string
	httpClient *http.Client

	exchangeTimeout time.Duration
	completeTimeout time.Duration
}

type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithExchangeTimeout overrides the per-exchange timeout.
func WithExchangeTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.exchangeTimeout = timeout
		}
	}
}

// WithCompleteTimeout overrides the session-completion timeout.
func WithCompleteTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.completeTimeout = timeout
		}
	}
}

// NewClient creates a dialogue client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return fmt.Sprintf("%s %s", request.Method, request.URL.Path)
			}),
		)},
		exchangeTimeout: DefaultExchangeTimeout,
		completeTimeout: DefaultCompleteTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// StartSession opens a new training session and returns the persona opener.
func (c *Client) StartSession(ctx context.Context, request StartSessionRequest) (*StartSessionResponse, error) {
	ctx, span := tracer.Start(ctx, "start session")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.exchangeTimeout)
	defer cancel()

	response := &StartSessionResponse{}
	if err := c.post(ctx, "/api/session/start", request, response); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return response, nil
}

// Exchange submits one trainee message and returns the normalized turn
// result. Timeout and transport failures are the caller's signal to abandon
// the turn.
func (c *Client) Exchange(ctx context.Context, request ExchangeRequest) (*ExchangeResponse, error) {
	ctx, span := tracer.Start(ctx, "dialogue exchange")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.exchangeTimeout)
	defer cancel()

	response := &ExchangeResponse{}
	if err := c.post(ctx, "/api/chat", request, response); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return response, nil
}

// Complete closes the session. Only HTTP failure is an error; the response
// body shape is not interpreted because the caller navigates to the feedback
// view regardless of it.
func (c *Client) Complete(ctx context.Context, request CompleteRequest) error {
	ctx, span := tracer.Start(ctx, "complete session")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.completeTimeout)
	defer cancel()

	if err := c.post(ctx, "/api/session/complete", request, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any, response any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	httpResponse, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		return fmt.Errorf("request to %s failed with status %d", path, httpResponse.StatusCode)
	}

	if response == nil {
		return nil
	}

	if err := json.NewDecoder(httpResponse.Body).Decode(response); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}
