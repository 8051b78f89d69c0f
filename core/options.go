package orchestration

import (
	"context"

	"github.com/dmarkovic/trainer-core/core/audio"
	"github.com/dmarkovic/trainer-core/core/dialogue"
	"github.com/dmarkovic/trainer-core/core/events"
	"github.com/dmarkovic/trainer-core/core/playback"
	"github.com/dmarkovic/trainer-core/core/speech"
)

type OrchestratorOption func(*Orchestrator)

// DialogueClient is the training backend: session lifecycle plus per-turn
// exchanges.
type DialogueClient interface {
	StartSession(ctx context.Context, request dialogue.StartSessionRequest) (*dialogue.StartSessionResponse, error)
	Exchange(ctx context.Context, request dialogue.ExchangeRequest) (*dialogue.ExchangeResponse, error)
	Complete(ctx context.Context, request dialogue.CompleteRequest) error
}

func WithDialogueClient(client DialogueClient) OrchestratorOption {
	return func(o *Orchestrator) { o.dialogue = client }
}

// ReplyPlayer presents one avatar reply and blocks until it has finished.
type ReplyPlayer interface {
	Play(ctx context.Context, request playback.PlayRequest) (playback.Tier, error)
}

func WithReplyPlayer(player ReplyPlayer) OrchestratorOption {
	return func(o *Orchestrator) { o.player = player }
}

// LoopCache prepares and holds the session's avatar loop videos.
type LoopCache interface {
	CheckStatus(ctx context.Context) (bool, error)
	Generate(ctx context.Context, avatarID string) error
	Load(ctx context.Context) (bool, error)
	Ready() bool
	Close()
}

func WithLoopCache(loops LoopCache) OrchestratorOption {
	return func(o *Orchestrator) { o.loops = loops }
}

// WithRecognitionSource wires the speech recognition source the endpointer
// listens on.
func WithRecognitionSource(source speech.RecognitionSource) OrchestratorOption {
	return func(o *Orchestrator) { o.source = source }
}

// WithEndpointerOptions forwards extra options (silence timeout, restart
// bound) to the endpointer built around the recognition source.
func WithEndpointerOptions(opts ...speech.Option) OrchestratorOption {
	return func(o *Orchestrator) { o.endpointerOptions = append(o.endpointerOptions, opts...) }
}

// AudioInput is a microphone capture device feeding recognition.
type AudioInput interface {
	EncodingInfo() audio.EncodingInfo
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

func WithAudioInput(input AudioInput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput = input }
}

// WithPersona selects the customer persona for the session.
func WithPersona(personaID string) OrchestratorOption {
	return func(o *Orchestrator) { o.personaID = personaID }
}

// WithAvatar selects the avatar character loop videos are generated for.
func WithAvatar(avatarID string) OrchestratorOption {
	return func(o *Orchestrator) { o.avatarID = avatarID }
}

// WithUserID sets the trainee identifier sent at session start.
func WithUserID(userID string) OrchestratorOption {
	return func(o *Orchestrator) { o.userID = userID }
}

type OrchestrateOptions struct {
	onEvent                func(event events.Event)
	onSpeakingStateChanged func(isSpeaking bool)
	onInterimTranscription func(transcript string)
	onTranscription        func(transcript string)
	onAvatarStateChanged   func(state events.AvatarState)
	onTranscriptAppended   func(role, content string)
	onMetricsUpdated       func(metrics events.MetricsUpdated)
	onReadinessUpdated     func(readiness events.ReadinessUpdated)
	onPlaybackStarted      func(tier string)
	onPlaybackEnded        func(tier string)
	onSessionEnded         func(reason events.EndReason)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithEventCallback registers a raw sink that receives every event the
// orchestrator emits, before any typed callback.
func WithEventCallback(callback func(event events.Event)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onEvent = callback }
}

// WithSpeakingStateChangedCallback registers a callback for user speech
// activity transitions.
func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onSpeakingStateChanged = callback }
}

// WithInterimTranscriptionCallback registers a callback for the mutable
// interim transcript: accumulated finalized segments plus the current
// interim tail.
func WithInterimTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onInterimTranscription = callback }
}

// WithTranscriptionCallback registers a callback for finalized utterances.
func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTranscription = callback }
}

func WithAvatarStateChangedCallback(callback func(state events.AvatarState)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onAvatarStateChanged = callback }
}

func WithTranscriptAppendedCallback(callback func(role, content string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTranscriptAppended = callback }
}

func WithMetricsUpdatedCallback(callback func(metrics events.MetricsUpdated)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onMetricsUpdated = callback }
}

func WithReadinessUpdatedCallback(callback func(readiness events.ReadinessUpdated)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onReadinessUpdated = callback }
}

func WithPlaybackStartedCallback(callback func(tier string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onPlaybackStarted = callback }
}

func WithPlaybackEndedCallback(callback func(tier string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onPlaybackEnded = callback }
}

func WithSessionEndedCallback(callback func(reason events.EndReason)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onSessionEnded = callback }
}
