// Package avatar is the client for the avatar rendering service and the
// per-session cache of pre-rendered idle/talking loop videos.
package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

// Loop roles served by the avatar service.
const (
	LoopIdle    = "idle"
	LoopTalking = "talking"
)

const (
	// DefaultHealthTimeout bounds the preflight health check. Health checks
	// must fail fast so the readiness gate can fall back instead of hanging.
	DefaultHealthTimeout = 5 * time.Second
	// DefaultGenerateTimeout bounds loop generation, which runs ffmpeg and a
	// rendering model server-side and is specified at tens of seconds.
	DefaultGenerateTimeout = 3 * time.Minute
	// DefaultFetchTimeout bounds loop video downloads.
	DefaultFetchTimeout = 30 * time.Second
)

// Client talks to the avatar service. All requests carry bounded timeouts;
// a failed operation is reported, never retried here.
type Client struct {
	baseURL    string
	httpClient *http.Client

	healthTimeout   time.Duration
	generateTimeout time.Duration
	fetchTimeout    time.Duration
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

// WithHealthTimeout overrides the health check timeout.
func WithHealthTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.healthTimeout = timeout
		}
	}
}

// WithGenerateTimeout overrides the loop generation timeout.
func WithGenerateTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.generateTimeout = timeout
		}
	}
}

// NewClient creates an avatar service client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return fmt.Sprintf("%s %s", request.Method, request.URL.Path)
			}),
		)},
		healthTimeout:   DefaultHealthTimeout,
		generateTimeout: DefaultGenerateTimeout,
		fetchTimeout:    DefaultFetchTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Health reports whether the avatar service is up.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	var response struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/health", &response); err != nil {
		return err
	}
	if response.Status != "healthy" {
		return fmt.Errorf("avatar service unhealthy: %q", response.Status)
	}
	return nil
}

// Avatars lists the avatar characters the service can render.
func (c *Client) Avatars(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	var response struct {
		Avatars []string `json:"avatars"`
	}
	if err := c.getJSON(ctx, "/avatars", &response); err != nil {
		return nil, err
	}
	return response.Avatars, nil
}

// LoopsStatus reports whether both loop videos exist server-side.
func (c *Client) LoopsStatus(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	var response struct {
		Idle    bool `json:"idle"`
		Talking bool `json:"talking"`
		Ready   bool `json:"ready"`
	}
	if err := c.getJSON(ctx, "/loops/status", &response); err != nil {
		return false, err
	}
	return response.Ready, nil
}

// GenerateLoops asks the service to render idle/talking loop videos for an
// avatar. This is the slow, once-per-session operation; the timeout is
// minutes, not seconds.
func (c *Client) GenerateLoops(ctx context.Context, avatarID string) error {
	ctx, span := tracer.Start(ctx, "generate avatar loops")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	payload := struct {
		AvatarID string `json:"avatar_id,omitempty"`
	}{AvatarID: avatarID}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/loops/generate", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("loop generation request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		err := fmt.Errorf("loop generation failed with status %d", response.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// FetchLoop downloads one loop video (LoopIdle or LoopTalking) as raw bytes.
func (c *Client) FetchLoop(ctx context.Context, loop string) ([]byte, error) {
	if loop != LoopIdle && loop != LoopTalking {
		return nil, fmt.Errorf("unknown loop role %q", loop)
	}

	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/loops/"+loop, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("loop fetch failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loop fetch failed with status %d", response.StatusCode)
	}

	blob, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read loop video: %w", err)
	}
	return blob, nil
}

// Render asks the service for a lip-synced video of the given audio.
//
// The playback policy never selects this path on its own: per-turn rendering
// is too slow to feel conversational, so loop playback with separately timed
// audio is preferred. Render remains available for user-triggered,
// latency-insensitive use.
func (c *Client) Render(ctx context.Context, audioBase64, avatarID string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "render avatar video")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	payload := struct {
		AudioBase64 string `json:"audio_base64"`
		AvatarID    string `json:"avatar_id,omitempty"`
	}{AudioBase64: audioBase64, AvatarID: avatarID}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("render request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		err := fmt.Errorf("render failed with status %d", response.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var rendered struct {
		VideoBase64     string  `json:"video_base64"`
		DurationSeconds float64 `json:"duration_seconds"`
		Frames          int     `json:"frames"`
	}
	if err := json.NewDecoder(response.Body).Decode(&rendered); err != nil {
		return nil, fmt.Errorf("failed to decode render response: %w", err)
	}

	video, err := decodeBase64(rendered.VideoBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered video: %w", err)
	}
	return video, nil
}

func (c *Client) getJSON(ctx context.Context, path string, response any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	httpResponse, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s failed with status %d", path, httpResponse.StatusCode)
	}

	if err := json.NewDecoder(httpResponse.Body).Decode(response); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
