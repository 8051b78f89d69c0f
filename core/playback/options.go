package playback

import (
	"context"

	"github.com/dmarkovic/trainer-core/core/audio"
	"github.com/dmarkovic/trainer-core/core/events"
	"github.com/dmarkovic/trainer-core/core/media"
)

// AudioPlayer plays decoded PCM audio and blocks until playback ends or ctx
// is cancelled.
type AudioPlayer interface {
	Play(ctx context.Context, pcm []byte, encodingInfo audio.EncodingInfo) error
}

// VideoSurface is wherever the loop video is being shown. SetSource swaps the
// currently looping video; an empty URL clears it.
type VideoSurface interface {
	SetSource(resourceURL string)
}

// SpeechSynthesizer speaks text audibly, blocking until done. It backs the
// last playback tier.
type SpeechSynthesizer interface {
	Speak(ctx context.Context, text string) error
}

// LoopProvider exposes the session's idle/talking loop resources.
type LoopProvider interface {
	Ready() bool
	IdleHandle() *media.Handle
	TalkingHandle() *media.Handle
}

type CoordinatorOption func(*Coordinator)

// WithAudioPlayer sets the audio output device.
func WithAudioPlayer(player AudioPlayer) CoordinatorOption {
	return func(c *Coordinator) { c.player = player }
}

// WithVideoSurface sets the surface loop videos are shown on.
func WithVideoSurface(surface VideoSurface) CoordinatorOption {
	return func(c *Coordinator) { c.surface = surface }
}

// WithSpeechSynthesizer sets the synthesized-speech fallback.
func WithSpeechSynthesizer(synthesizer SpeechSynthesizer) CoordinatorOption {
	return func(c *Coordinator) { c.synthesizer = synthesizer }
}

// WithLoops sets the provider of the session's loop videos.
func WithLoops(loops LoopProvider) CoordinatorOption {
	return func(c *Coordinator) { c.loops = loops }
}

// WithEventEmitter registers a sink for playback lifecycle events.
func WithEventEmitter(emit func(events.Event)) CoordinatorOption {
	return func(c *Coordinator) {
		if emit != nil {
			c.eventEmitter = emit
		}
	}
}
