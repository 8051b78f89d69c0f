package events

const (
	// KindPlaybackStarted identifies the start of reply playback.
	KindPlaybackStarted Kind = "playback.started"
	// KindPlaybackEnded identifies the end of reply playback.
	KindPlaybackEnded Kind = "playback.ended"
)

// PlaybackStarted marks the start of one reply playback and names the
// avatar-output tier that was selected for it.
type PlaybackStarted struct {
	Base
	Tier string
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(tier string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), Tier: tier}
}

// PlaybackEnded marks the end of one reply playback, whether it completed or
// failed; a failed tier still ends, it never hangs the turn.
type PlaybackEnded struct {
	Base
	Tier string
}

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded(tier string) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), Tier: tier}
}
