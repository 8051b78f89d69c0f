package events

// AvatarState is the coarse presentation state of the avatar.
type AvatarState string

const (
	AvatarStateIdle      AvatarState = "idle"
	AvatarStateListening AvatarState = "listening"
	AvatarStateThinking  AvatarState = "thinking"
	AvatarStateSpeaking  AvatarState = "speaking"
	AvatarStateError     AvatarState = "error"
)

// KindAvatarStateChanged identifies avatar presentation state transitions.
const KindAvatarStateChanged Kind = "avatar.state_changed"

// AvatarStateChanged carries an avatar presentation state transition.
type AvatarStateChanged struct {
	Base
	State AvatarState
}

// NewAvatarStateChanged creates an avatar state transition event.
func NewAvatarStateChanged(state AvatarState) AvatarStateChanged {
	return AvatarStateChanged{Base: NewBase(KindAvatarStateChanged), State: state}
}
