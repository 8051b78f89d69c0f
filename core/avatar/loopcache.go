package avatar

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/dmarkovic/trainer-core/core/media"
	"go.opentelemetry.io/otel/codes"
)

// LoopCache holds the two pre-rendered loop videos for the current session.
// It is populated once per session; while it is not ready the playback
// policy falls back to audio-only or synthesized speech.
type LoopCache struct {
	client *Client

	mu      sync.Mutex
	store   *media.Store
	idle    *media.Handle
	talking *media.Handle
}

// NewLoopCache creates an empty cache over an avatar service client.
func NewLoopCache(client *Client) *LoopCache {
	return &LoopCache{
		client: client,
		store:  media.NewStore(),
	}
}

// CheckStatus asks the service whether both loop videos exist server-side.
func (c *LoopCache) CheckStatus(ctx context.Context) (bool, error) {
	return c.client.LoopsStatus(ctx)
}

// Generate requests server-side creation of both loop videos for an avatar.
// This is the tens-of-seconds operation; callers should run it during
// preflight, not inside a turn.
func (c *LoopCache) Generate(ctx context.Context, avatarID string) error {
	return c.client.GenerateLoops(ctx, avatarID)
}

// Load fetches both loop videos and converts them into owned media handles,
// replacing (and releasing) any handles from a previous load. It reports
// whether both loops are now held.
func (c *LoopCache) Load(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "load avatar loops")
	defer span.End()

	idleBlob, err := c.client.FetchLoop(ctx, LoopIdle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to fetch idle loop: %w", err)
	}

	talkingBlob, err := c.client.FetchLoop(ctx, LoopTalking)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to fetch talking loop: %w", err)
	}

	idleHandle, err := media.Acquire(media.KindVideo, idleBlob)
	if err != nil {
		return false, fmt.Errorf("failed to acquire idle loop resource: %w", err)
	}

	talkingHandle, err := media.Acquire(media.KindVideo, talkingBlob)
	if err != nil {
		idleHandle.Release()
		return false, fmt.Errorf("failed to acquire talking loop resource: %w", err)
	}

	c.mu.Lock()
	c.store.Install(LoopIdle, idleHandle)
	c.store.Install(LoopTalking, talkingHandle)
	c.idle = idleHandle
	c.talking = talkingHandle
	c.mu.Unlock()

	return true, nil
}

// Ready reports whether both loop resources are held and unreleased.
func (c *LoopCache) Ready() bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idle != nil && !c.idle.Released() &&
		c.talking != nil && !c.talking.Released()
}

// IdleHandle returns the idle loop resource, or nil before a successful Load.
func (c *LoopCache) IdleHandle() *media.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idle
}

// TalkingHandle returns the talking loop resource, or nil before a
// successful Load.
func (c *LoopCache) TalkingHandle() *media.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.talking
}

// Close releases both loop resources.
func (c *LoopCache) Close() {
	if c == nil {
		return
	}

	c.mu.Lock()
	store := c.store
	c.idle = nil
	c.talking = nil
	c.mu.Unlock()

	store.ReleaseAll()
}

func decodeBase64(payload string) ([]byte, error) {
	// Tolerate data-URL prefixes the service occasionally emits.
	if idx := strings.Index(payload, ","); idx != -1 && strings.Contains(payload[:idx], ";base64") {
		payload = payload[idx+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}
