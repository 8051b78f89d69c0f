// Package playback owns the single reply-output slot: it selects the
// avatar-output tier for each reply and drives the loop video, audio device
// and speech fallback in the right order.
package playback

import (
	"context"
	"encoding/base64"
	"errors"
	"sync/atomic"

	"github.com/dmarkovic/trainer-core/core/audio"
	"github.com/dmarkovic/trainer-core/core/events"
	"github.com/dmarkovic/trainer-core/core/media"
	"go.opentelemetry.io/otel/codes"
)

// ErrPlaybackActive is returned when Play is called while a previous reply is
// still playing. The new request is dropped, not queued.
var ErrPlaybackActive = errors.New("a reply is already playing")

const replyAudioRole = "reply-audio"

// PlayRequest is one avatar reply to present.
type PlayRequest struct {
	// AudioBase64 is the service-synthesized reply audio (WAV), or empty.
	AudioBase64 string
	// ReplyText is the reply text, spoken verbatim by the fallback tier.
	ReplyText string
	// Emotion is the persona's emotion tag for this reply.
	Emotion string
}

// Coordinator presents avatar replies one at a time.
//
// At most one reply plays at any moment; a second Play while one is in
// flight is rejected with [ErrPlaybackActive]. Tier failures are resolved
// internally: the idle loop is restored, acquired media is released and the
// call returns without error, so a broken output path never breaks the turn.
type Coordinator struct {
	player      AudioPlayer
	surface     VideoSurface
	synthesizer SpeechSynthesizer
	loops       LoopProvider

	store        *media.Store
	eventEmitter func(events.Event)

	playing atomic.Bool
}

// NewCoordinator creates a playback coordinator. All collaborators are
// optional; the tier policy degrades to whatever is wired.
func NewCoordinator(opts ...CoordinatorOption) *Coordinator {
	coordinator := &Coordinator{
		store:        media.NewStore(),
		eventEmitter: func(events.Event) {},
	}

	for _, opt := range opts {
		opt(coordinator)
	}

	return coordinator
}

// SetEventEmitter routes playback lifecycle events into an external event
// stream, replacing any emitter registered at construction. Call it before
// the first Play.
func (c *Coordinator) SetEventEmitter(emit func(events.Event)) {
	if emit != nil {
		c.eventEmitter = emit
	}
}

// Playing reports whether a reply is currently being presented.
func (c *Coordinator) Playing() bool {
	return c.playing.Load()
}

// Play presents one reply and blocks until it has finished. It returns the
// tier that was selected. The only error is [ErrPlaybackActive].
func (c *Coordinator) Play(ctx context.Context, request PlayRequest) (Tier, error) {
	if !c.playing.CompareAndSwap(false, true) {
		return "", ErrPlaybackActive
	}
	defer c.playing.Store(false)

	ctx, span := tracer.Start(ctx, "play reply")
	defer span.End()

	pcm, encodingInfo, handle := c.prepareAudio(ctx, request.AudioBase64)
	if handle != nil {
		defer handle.Release()
	}

	tier := c.selectTier(handle != nil)
	logger.DebugContext(ctx, "selected playback tier",
		"tier", tier.String(), "emotion", request.Emotion)

	c.eventEmitter(events.NewPlaybackStarted(tier.String()))
	defer c.eventEmitter(events.NewPlaybackEnded(tier.String()))

	switch tier {
	case TierLoopPlayback:
		c.playWithLoops(ctx, pcm, encodingInfo)
	case TierAudioOnly:
		c.playAudio(ctx, pcm, encodingInfo)
	case TierSpeechFallback:
		c.speakReply(ctx, request.ReplyText)
	}

	return tier, nil
}

// Close releases any reply audio still held.
func (c *Coordinator) Close() {
	c.store.ReleaseAll()
}

func (c *Coordinator) selectTier(hasAudio bool) Tier {
	playable := hasAudio && c.player != nil
	switch {
	case playable && c.surface != nil && c.loops != nil && c.loops.Ready():
		return TierLoopPlayback
	case playable:
		return TierAudioOnly
	default:
		return TierSpeechFallback
	}
}

// prepareAudio decodes the service audio into PCM and an owned media handle.
// Any decode failure degrades the request to the no-audio path.
func (c *Coordinator) prepareAudio(ctx context.Context, audioBase64 string) ([]byte, audio.EncodingInfo, *media.Handle) {
	if audioBase64 == "" {
		return nil, audio.EncodingInfo{}, nil
	}

	blob, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		logger.WarnContext(ctx, "reply audio is not valid base64", "error", err)
		return nil, audio.EncodingInfo{}, nil
	}

	pcm, encodingInfo, err := audio.ParseWAV(blob)
	if err != nil {
		logger.WarnContext(ctx, "reply audio is not a playable WAV", "error", err)
		return nil, audio.EncodingInfo{}, nil
	}

	handle, err := media.Acquire(media.KindAudio, blob)
	if err != nil {
		logger.WarnContext(ctx, "failed to stage reply audio", "error", err)
		return nil, audio.EncodingInfo{}, nil
	}
	c.store.Install(replyAudioRole, handle)

	return pcm, encodingInfo, handle
}

// playWithLoops shows the talking loop strictly before audio starts and
// restores the idle loop strictly after the audio has ended or failed.
func (c *Coordinator) playWithLoops(ctx context.Context, pcm []byte, encodingInfo audio.EncodingInfo) {
	c.surface.SetSource(c.loops.TalkingHandle().ResourceURL())
	c.playAudio(ctx, pcm, encodingInfo)
	c.surface.SetSource(c.loops.IdleHandle().ResourceURL())
}

func (c *Coordinator) playAudio(ctx context.Context, pcm []byte, encodingInfo audio.EncodingInfo) {
	ctx, span := tracer.Start(ctx, "play audio")
	defer span.End()

	if err := c.player.Play(ctx, pcm, encodingInfo); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "reply audio playback failed", "error", err)
	}
}

func (c *Coordinator) speakReply(ctx context.Context, text string) {
	if c.synthesizer == nil || text == "" {
		return
	}

	ctx, span := tracer.Start(ctx, "speak reply")
	defer span.End()

	if err := c.synthesizer.Speak(ctx, text); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "speech fallback failed", "error", err)
	}
}
