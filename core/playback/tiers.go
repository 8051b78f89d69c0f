package playback

// Tier is the avatar-output tier selected for one reply playback.
//
// Selection is strict priority: loop playback when both loop videos and
// service audio are available, audio only when just the audio is, and
// synthesized speech when there is no audio at all. TierRenderedVideo exists
// in the policy but is never auto-selected: per-reply rendering takes tens of
// seconds and would stall the conversation, so it is reserved for explicit,
// latency-insensitive requests.
type Tier string

const (
	TierLoopPlayback   Tier = "loop_playback"
	TierRenderedVideo  Tier = "rendered_video"
	TierAudioOnly      Tier = "audio_only"
	TierSpeechFallback Tier = "speech_fallback"
)

func (t Tier) String() string {
	return string(t)
}
