package orchestration

import (
	"context"
	"fmt"

	"github.com/dmarkovic/trainer-core/core/dialogue"
	"github.com/dmarkovic/trainer-core/core/events"
	"go.opentelemetry.io/otel/codes"
)

// CompleteSession finishes the session on the trainee's initiative: capture
// stops first so no trailing utterance can start a turn mid-teardown, then
// the transcript and coaching state are submitted for the scorecard.
//
// The backend's response body is deliberately not interpreted; HTTP failure
// is the only error.
func (o *Orchestrator) CompleteSession(ctx context.Context) error {
	if o.SessionID() == "" {
		return ErrNoSession
	}

	ctx, span := tracer.Start(ctx, "complete training session")
	defer span.End()

	if err := o.StopListening(); err != nil {
		logger.WarnContext(ctx, "failed to stop listening before completion", "error", err)
	}

	o.stateMu.Lock()
	request := dialogue.CompleteRequest{
		SessionID:           o.sessionID,
		ConversationHistory: o.conversation.history(),
		CurrentStage:        o.currentStage,
		TrustScore:          o.trustScore,
		SaleOutcome:         o.saleOutcome,
		Missteps:            append([]dialogue.Misstep(nil), o.missteps...),
		PersonaID:           o.personaID,
	}
	o.stateMu.Unlock()

	if err := o.dialogue.Complete(ctx, request); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to complete session: %w", err)
	}

	if o.ended.CompareAndSwap(false, true) {
		o.emit(events.NewSessionEnded(events.EndReasonCompleted))
	}
	return nil
}
