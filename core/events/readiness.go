package events

// AvatarReadiness is the preflight state of the avatar service.
//
// Error is terminal but acceptable: avatar unavailability has a defined
// audio-only fallback, so it must never block the session gate.
type AvatarReadiness string

const (
	AvatarReadinessPending    AvatarReadiness = "pending"
	AvatarReadinessConnecting AvatarReadiness = "connecting"
	AvatarReadinessReady      AvatarReadiness = "ready"
	AvatarReadinessError      AvatarReadiness = "error"
)

// SessionReadiness is the preflight state of the training session itself.
type SessionReadiness string

const (
	SessionReadinessPending SessionReadiness = "pending"
	SessionReadinessReady   SessionReadiness = "ready"
)

// KindReadinessUpdated identifies preflight readiness transitions.
const KindReadinessUpdated Kind = "readiness.updated"

// ReadinessUpdated carries a preflight readiness snapshot.
type ReadinessUpdated struct {
	Base
	Avatar       AvatarReadiness
	Session      SessionReadiness
	InputEnabled bool
}

// NewReadinessUpdated creates a readiness snapshot event.
func NewReadinessUpdated(avatar AvatarReadiness, session SessionReadiness, inputEnabled bool) ReadinessUpdated {
	return ReadinessUpdated{
		Base:         NewBase(KindReadinessUpdated),
		Avatar:       avatar,
		Session:      session,
		InputEnabled: inputEnabled,
	}
}
