package orchestration

import (
	"sync"

	"github.com/dmarkovic/trainer-core/core/events"
)

var avatarReadinessRank = map[events.AvatarReadiness]int{
	events.AvatarReadinessPending:    0,
	events.AvatarReadinessConnecting: 1,
	events.AvatarReadinessReady:      2,
	events.AvatarReadinessError:      2,
}

// readinessState is the preflight gate. Transitions only move forward; a
// service that came up never flips back to pending. Avatar error ranks with
// ready because avatar failure has a defined audio-only fallback and must not
// hold the gate closed.
type readinessState struct {
	mu      sync.Mutex
	avatar  events.AvatarReadiness
	session events.SessionReadiness
}

func newReadinessState() *readinessState {
	return &readinessState{
		avatar:  events.AvatarReadinessPending,
		session: events.SessionReadinessPending,
	}
}

// setAvatar applies a forward-only avatar transition and reports whether it
// changed anything.
func (r *readinessState) setAvatar(state events.AvatarReadiness) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if avatarReadinessRank[state] < avatarReadinessRank[r.avatar] || state == r.avatar {
		return false
	}
	r.avatar = state
	return true
}

func (r *readinessState) setSessionReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == events.SessionReadinessReady {
		return false
	}
	r.session = events.SessionReadinessReady
	return true
}

// inputEnabled reports whether the trainee may speak: the session must be
// ready and the avatar must have resolved one way or the other.
func (r *readinessState) inputEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputEnabledLocked()
}

func (r *readinessState) inputEnabledLocked() bool {
	return r.session == events.SessionReadinessReady &&
		(r.avatar == events.AvatarReadinessReady || r.avatar == events.AvatarReadinessError)
}

// snapshot returns the current readiness as an event payload.
func (r *readinessState) snapshot() events.ReadinessUpdated {
	r.mu.Lock()
	defer r.mu.Unlock()
	return events.NewReadinessUpdated(r.avatar, r.session, r.inputEnabledLocked())
}
