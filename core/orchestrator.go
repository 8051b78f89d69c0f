// Package orchestration turns one spoken trainee utterance into one spoken
// avatar reply: endpointed speech capture, a dialogue exchange against the
// training backend, reply audio retrieval and tiered avatar playback.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmarkovic/trainer-core/core/dialogue"
	"github.com/dmarkovic/trainer-core/core/events"
	"github.com/dmarkovic/trainer-core/core/speech"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNoDialogueClient means the orchestrator was started without a
	// backend to exchange turns with.
	ErrNoDialogueClient = errors.New("dialogue client not configured")
	// ErrNoSession means no training session has been started yet.
	ErrNoSession = errors.New("no active session")
	// ErrInputDisabled means the preflight readiness gate has not opened.
	ErrInputDisabled = errors.New("input is disabled until the session is ready")
	// ErrTurnInFlight means a previous utterance is still being processed.
	ErrTurnInFlight = errors.New("a turn is already being processed")
	// ErrSessionOver means the session has ended and takes no more turns.
	ErrSessionOver = errors.New("session has ended")
)

type Orchestrator struct {
	dialogue DialogueClient
	player   ReplyPlayer
	loops    LoopCache

	source            speech.RecognitionSource
	endpointer        *speech.Endpointer
	endpointerOptions []speech.Option
	audioInput        AudioInput

	personaID string
	avatarID  string
	userID    string

	conversation conversation
	readiness    *readinessState

	stateMu      sync.Mutex
	sessionID    string
	currentStage int
	trustScore   int
	saleOutcome  string
	missteps     []dialogue.Misstep

	turnActive atomic.Bool
	ended      atomic.Bool
	listening  atomic.Bool

	// sessionEndDelay is how long a misstep-terminated session keeps playing
	// before the ended event fires. Zero means the default.
	sessionEndDelay time.Duration

	emit               eventEmitter
	orchestrateOptions OrchestrateOptions
	baseContext        context.Context
	closeOnce          sync.Once
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		personaID:    "price_sensitive_pam",
		userID:       uuid.NewString(),
		currentStage: dialogue.StageProbe,
		trustScore:   5,
		readiness:    newReadinessState(),
		emit:         noopEventEmitter,
		baseContext:  context.Background(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Orchestrate registers event callbacks, opens the training session and runs
// the avatar preflight. It returns once the session is ready; avatar
// preparation continues in the background and opens the input gate through a
// readiness event when it resolves.
//
// Contract: call Orchestrate at most once per orchestrator instance.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) error {
	if o.ended.Load() {
		log.Println("Warning: orchestrator already closed, skipping Orchestrate")
		return ErrSessionOver
	}
	if o.dialogue == nil {
		return ErrNoDialogueClient
	}

	o.orchestrateOptions = OrchestrateOptions{}
	for _, opt := range opts {
		opt(&o.orchestrateOptions)
	}
	o.emit = newCallbackEventEmitter(o.orchestrateOptions)
	o.baseContext = ctx

	// A coordinator-style player reports playback lifecycle through its own
	// emitter; route it into this session's event stream.
	if player, ok := o.player.(interface{ SetEventEmitter(func(events.Event)) }); ok {
		player.SetEventEmitter(func(event events.Event) { o.emit(event) })
	}

	o.emit(o.readiness.snapshot())

	if err := o.startSession(ctx); err != nil {
		return err
	}

	o.initEndpointer()

	go o.prepareAvatar(ctx)

	go func() {
		<-ctx.Done()
		o.Close()
	}()

	return nil
}

func (o *Orchestrator) startSession(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "start training session")
	defer span.End()

	response, err := o.dialogue.StartSession(ctx, dialogue.StartSessionRequest{
		UserID:    o.userID,
		PersonaID: o.personaID,
		AvatarID:  o.avatarID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to start training session: %w", err)
	}

	o.stateMu.Lock()
	o.sessionID = response.SessionID
	if o.sessionID == "" {
		o.sessionID = uuid.NewString()
	}
	if response.CurrentStage >= dialogue.StageProbe {
		o.currentStage = response.CurrentStage
	}
	if response.TrustScore > 0 {
		o.trustScore = response.TrustScore
	}
	o.stateMu.Unlock()

	if response.Greeting != "" {
		o.conversation.append(dialogue.RoleAssistant, response.Greeting)
		o.emit(events.NewTranscriptAppended(dialogue.RoleAssistant, response.Greeting))
	}

	if o.readiness.setSessionReady() {
		o.emit(o.readiness.snapshot())
	}
	return nil
}

// prepareAvatar runs the loop preflight: check, generate if missing, load.
// Every failure resolves to the error readiness state; the session continues
// on the audio-only tiers.
func (o *Orchestrator) prepareAvatar(ctx context.Context) {
	if o.loops == nil {
		o.updateAvatarReadiness(events.AvatarReadinessError)
		return
	}

	ctx, span := tracer.Start(ctx, "prepare avatar loops")
	defer span.End()

	o.updateAvatarReadiness(events.AvatarReadinessConnecting)

	ready, err := o.loops.CheckStatus(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.updateAvatarReadiness(events.AvatarReadinessError)
		return
	}

	if !ready {
		if err := o.loops.Generate(ctx, o.avatarID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.updateAvatarReadiness(events.AvatarReadinessError)
			return
		}
	}

	if _, err := o.loops.Load(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.updateAvatarReadiness(events.AvatarReadinessError)
		return
	}

	o.updateAvatarReadiness(events.AvatarReadinessReady)
}

func (o *Orchestrator) updateAvatarReadiness(state events.AvatarReadiness) {
	if o.readiness.setAvatar(state) {
		o.emit(o.readiness.snapshot())
	}
}

func (o *Orchestrator) initEndpointer() {
	if o.source == nil {
		return
	}

	opts := []speech.Option{
		speech.WithInterimCallback(func(transcript string) {
			o.emit(events.NewUserTranscriptInterimUpdated(transcript))
		}),
		speech.WithFinalCallback(func(text string) {
			o.emit(events.NewUserTranscriptInterimUpdated(""))
			o.emit(events.NewUserUtteranceFinal(text))
			// Synchronous submission: a flush triggered by StopListening must
			// land its turn before the caller's teardown continues.
			if err := o.SubmitUtterance(o.baseContext, text); err != nil {
				logger.WarnContext(o.baseContext, "utterance was not processed", "error", err)
			}
		}),
		speech.WithSpeechStartedCallback(func() {
			o.emit(events.NewUserSpeechStarted())
		}),
		speech.WithSpeechEndedCallback(func() {
			o.emit(events.NewUserSpeechEnded())
		}),
		speech.WithErrorCallback(func(err error) {
			recordedErr := fmt.Errorf("speech recognition failed: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())

			if o.listening.CompareAndSwap(true, false) && o.audioInput != nil {
				if err := o.audioInput.StopCapture(); err != nil {
					log.Printf("Failed to stop audio capture: %v", err)
				}
			}
			o.setAvatarState(events.AvatarStateError)
		}),
	}
	if o.audioInput != nil {
		opts = append(opts, speech.WithSourceEncodingInfo(o.audioInput.EncodingInfo()))
	}
	opts = append(opts, o.endpointerOptions...)

	o.endpointer = speech.New(o.source, opts...)
}

// StartListening starts endpointed speech capture. It requires a recognition
// source; microphone capture is started too when an audio input is wired.
func (o *Orchestrator) StartListening(ctx context.Context) error {
	if o.endpointer == nil {
		return speech.ErrUnsupported
	}
	if o.ended.Load() {
		return ErrSessionOver
	}

	if err := o.endpointer.Start(ctx); err != nil {
		return err
	}

	if o.audioInput != nil {
		if err := o.audioInput.StartCapture(ctx, func(audio []byte) {
			if err := o.endpointer.SendAudio(audio); err != nil {
				log.Printf("Failed to forward captured audio: %v", err)
			}
		}); err != nil {
			_ = o.endpointer.Stop()
			return fmt.Errorf("failed to start audio capture: %w", err)
		}
	}

	o.listening.Store(true)
	o.setAvatarState(events.AvatarStateListening)
	return nil
}

// StopListening stops capture and flushes any trailing speech through the
// normal utterance path.
func (o *Orchestrator) StopListening() error {
	if !o.listening.CompareAndSwap(true, false) {
		return nil
	}

	if o.audioInput != nil {
		if err := o.audioInput.StopCapture(); err != nil {
			log.Printf("Failed to stop audio capture: %v", err)
		}
	}

	var err error
	if o.endpointer != nil {
		err = o.endpointer.Stop()
	}

	o.setAvatarState(events.AvatarStateIdle)
	return err
}

// Listening reports whether speech capture is running.
func (o *Orchestrator) Listening() bool {
	return o.listening.Load()
}

// InputEnabled reports whether the readiness gate has opened.
func (o *Orchestrator) InputEnabled() bool {
	return o.readiness.inputEnabled()
}

// Transcript returns a point-in-time copy of the session transcript.
func (o *Orchestrator) Transcript() []TranscriptEntry {
	return o.conversation.Snapshot()
}

// SessionID returns the active session identifier, empty before Orchestrate.
func (o *Orchestrator) SessionID() string {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.sessionID
}

// Close tears the orchestrator down: capture stops, loop resources are
// released. Idempotent.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.ended.Store(true)

		if err := o.StopListening(); err != nil {
			recordedErr := fmt.Errorf("failed to stop listening: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		if o.loops != nil {
			o.loops.Close()
		}
	})
}

func (o *Orchestrator) setAvatarState(state events.AvatarState) {
	o.emit(events.NewAvatarStateChanged(state))
}
