package events

// EndReason says why a training session ended.
type EndReason string

const (
	// EndReasonCompleted marks a normal, user-initiated completion.
	EndReasonCompleted EndReason = "completed"
	// EndReasonMisstep marks termination by a session-ending policy misstep.
	EndReasonMisstep EndReason = "misstep"
)

// KindSessionEnded identifies the end of the training session.
const KindSessionEnded Kind = "session.ended"

// SessionEnded marks the end of the training session. For misstep
// terminations this event is deliberately delayed so the avatar's final reply
// can finish playing first.
type SessionEnded struct {
	Base
	Reason EndReason
}

// NewSessionEnded creates a session ended event.
func NewSessionEnded(reason EndReason) SessionEnded {
	return SessionEnded{Base: NewBase(KindSessionEnded), Reason: reason}
}
