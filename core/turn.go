package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmarkovic/trainer-core/core/dialogue"
	"github.com/dmarkovic/trainer-core/core/events"
	"github.com/dmarkovic/trainer-core/core/playback"
	"go.opentelemetry.io/otel/codes"
)

// sessionEndDelay keeps the avatar's final reply audible before a
// misstep-terminated session actually ends.
const defaultSessionEndDelay = 3 * time.Second

// SubmitUtterance processes one trainee utterance end to end: optimistic
// transcript append, dialogue exchange, metric updates and reply playback.
//
// Empty or whitespace-only text is a silent no-op. While a turn is in flight
// further utterances are rejected, never queued. An exchange failure abandons
// the turn: the optimistic user entry stays, no assistant entry is added, the
// avatar returns to idle and nothing is retried.
func (o *Orchestrator) SubmitUtterance(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if o.ended.Load() {
		return ErrSessionOver
	}
	if o.SessionID() == "" {
		return ErrNoSession
	}
	if !o.readiness.inputEnabled() {
		return ErrInputDisabled
	}
	if !o.turnActive.CompareAndSwap(false, true) {
		return ErrTurnInFlight
	}
	defer o.turnActive.Store(false)

	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()

	o.setAvatarState(events.AvatarStateThinking)

	// The history sent to the backend is the transcript before this
	// utterance; the utterance itself travels in the message field.
	history := o.conversation.history()

	o.conversation.append(dialogue.RoleUser, text)
	o.emit(events.NewTranscriptAppended(dialogue.RoleUser, text))

	o.stateMu.Lock()
	request := dialogue.ExchangeRequest{
		SessionID:           o.sessionID,
		Message:             text,
		PersonaID:           o.personaID,
		CurrentStage:        o.currentStage,
		TrustScore:          o.trustScore,
		ConversationHistory: history,
	}
	o.stateMu.Unlock()

	response, err := o.dialogue.Exchange(ctx, request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.setAvatarState(events.AvatarStateIdle)
		return fmt.Errorf("dialogue exchange failed: %w", err)
	}

	o.conversation.append(dialogue.RoleAssistant, response.Response)
	o.emit(events.NewTranscriptAppended(dialogue.RoleAssistant, response.Response))

	o.applyTurnResult(response)

	if response.EndsSession() {
		o.scheduleSessionEnd(events.EndReasonMisstep)
	}

	o.playReply(ctx, response)
	o.setAvatarState(events.AvatarStateIdle)
	return nil
}

// applyTurnResult folds the exchange result into session state. Stage only
// ever advances; trust and engagement are last-write-wins even when the
// backend reports a drop.
func (o *Orchestrator) applyTurnResult(response *dialogue.ExchangeResponse) {
	o.stateMu.Lock()
	if response.CurrentStage > o.currentStage {
		o.currentStage = response.CurrentStage
	}
	o.trustScore = response.TrustScore
	if response.SaleOutcome != "" {
		o.saleOutcome = response.SaleOutcome
	}
	o.missteps = append(o.missteps, response.Missteps...)

	metrics := events.MetricsUpdated{
		TrustScore:           o.trustScore,
		Stage:                o.currentStage,
		StageName:            dialogue.StageName(o.currentStage),
		EngagementLevel:      response.EngagementLevel,
		EngagementTrend:      response.EngagementTrend,
		BuyingSignalStrength: response.BuyingSignalStrength,
		ReadyToClose:         response.ReadyToClose,
	}
	o.stateMu.Unlock()

	o.emit(events.NewMetricsUpdated(metrics))
}

// scheduleSessionEnd disables further input immediately but delays the
// session-ended event so the final reply can finish playing.
func (o *Orchestrator) scheduleSessionEnd(reason events.EndReason) {
	if !o.ended.CompareAndSwap(false, true) {
		return
	}

	delay := o.sessionEndDelay
	if delay <= 0 {
		delay = defaultSessionEndDelay
	}
	time.AfterFunc(delay, func() {
		o.emit(events.NewSessionEnded(reason))
	})
}

func (o *Orchestrator) playReply(ctx context.Context, response *dialogue.ExchangeResponse) {
	if o.player == nil {
		return
	}

	o.setAvatarState(events.AvatarStateSpeaking)
	if _, err := o.player.Play(ctx, playback.PlayRequest{
		AudioBase64: response.AudioBase64,
		ReplyText:   response.Response,
		Emotion:     response.Emotion,
	}); err != nil {
		logger.WarnContext(ctx, "reply playback was not started", "error", err)
	}
}
