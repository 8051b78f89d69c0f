package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// State is the externally observable endpointer state.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateError     State = "error"
)

// Endpointer turns a continuous recognition stream into discrete utterances
// using a silence-timeout heuristic.
//
// Interim results cancel the running silence timer (speech is ongoing);
// finalized segments are appended to an accumulator and (re)arm the timer.
// When the timer fires with a non-empty accumulator, the trimmed text is
// flushed through the final callback exactly once and the accumulator is
// cleared. Stop flushes trailing speech the same way, so a manual stop never
// drops an utterance.
type Endpointer struct {
	source RecognitionSource

	config    endpointerConfig
	callbacks endpointerCallbacks

	mu           sync.Mutex
	state        State
	accumulator  string
	silenceTimer *time.Timer
	// timerGeneration invalidates in-flight timer fires after a cancel or
	// rearm, so a stale fire can never flush a newer accumulator.
	timerGeneration int
	restarts        int
	baseContext     context.Context
}

// New creates an endpointer over a recognition source. The source is started
// and supervised by the endpointer; callers interact only with the
// endpointer's callbacks.
func New(source RecognitionSource, opts ...Option) *Endpointer {
	endpointer := &Endpointer{
		source: source,
		state:  StateIdle,
		config: endpointerConfig{
			silenceTimeout: DefaultSilenceTimeout,
			maxRestarts:    DefaultMaxRestarts,
		},
		baseContext: context.Background(),
	}

	for _, opt := range opts {
		opt(endpointer)
	}

	return endpointer
}

// State returns the current endpointer state.
func (e *Endpointer) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start transitions Idle → Listening and starts the underlying source.
func (e *Endpointer) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateListening {
		e.mu.Unlock()
		return nil
	}
	if e.source == nil {
		e.state = StateError
		e.mu.Unlock()
		e.invokeError(ErrUnsupported)
		return ErrUnsupported
	}

	e.state = StateListening
	e.restarts = 0
	e.baseContext = ctx
	e.mu.Unlock()

	if err := e.startSource(ctx); err != nil {
		e.mu.Lock()
		e.state = StateError
		e.mu.Unlock()
		e.invokeError(err)
		return fmt.Errorf("failed to start recognition source: %w", err)
	}

	return nil
}

// Stop cancels the silence timer, flushes any accumulated speech through the
// final callback and tears down the source. Listening → Idle.
func (e *Endpointer) Stop() error {
	e.mu.Lock()
	if e.state != StateListening {
		e.mu.Unlock()
		return nil
	}

	e.cancelSilenceTimerLocked()
	flushed := strings.TrimSpace(e.accumulator)
	e.accumulator = ""
	e.state = StateIdle
	e.mu.Unlock()

	// Trailing speech is never silently dropped by a manual stop.
	if flushed != "" && e.callbacks.onFinal != nil {
		e.callbacks.onFinal(flushed)
	}

	if err := e.source.Stop(); err != nil {
		return fmt.Errorf("failed to stop recognition source: %w", err)
	}
	return nil
}

// SendAudio forwards captured audio to the underlying source.
func (e *Endpointer) SendAudio(audio []byte) error {
	if e.source == nil {
		return nil
	}
	return e.source.SendAudio(audio)
}

func (e *Endpointer) startSource(ctx context.Context) error {
	opts := []RecognitionOption{
		WithInterimResultCallback(e.handleInterimResult),
		WithFinalResultCallback(e.handleFinalResult),
		WithSourceSpeechStartedCallback(e.handleSpeechStarted),
		WithSourceErrorCallback(e.handleSourceError),
		WithClosedCallback(e.handleSourceClosed),
	}
	if !e.config.encodingInfo.IsZero() {
		opts = append(opts, WithEncodingInfo(e.config.encodingInfo))
	}

	return e.source.Start(ctx, opts...)
}

func (e *Endpointer) handleInterimResult(partial string) {
	if strings.TrimSpace(partial) == "" {
		return
	}

	e.mu.Lock()
	if e.state != StateListening {
		e.mu.Unlock()
		return
	}
	// Speech is ongoing: the silence timer must not fire mid-utterance.
	e.cancelSilenceTimerLocked()
	combined := joinTranscript(e.accumulator, partial)
	e.mu.Unlock()

	if e.callbacks.onInterim != nil {
		e.callbacks.onInterim(combined)
	}
}

func (e *Endpointer) handleFinalResult(segment string) {
	segment = strings.TrimSpace(segment)

	e.mu.Lock()
	if e.state != StateListening {
		e.mu.Unlock()
		return
	}
	if segment != "" {
		e.accumulator = joinTranscript(e.accumulator, segment)
	}
	e.armSilenceTimerLocked()
	e.mu.Unlock()
}

func (e *Endpointer) handleSpeechStarted() {
	e.mu.Lock()
	listening := e.state == StateListening
	e.mu.Unlock()

	if listening && e.callbacks.onSpeechStarted != nil {
		e.callbacks.onSpeechStarted()
	}
}

func (e *Endpointer) handleSourceError(err error) {
	if IsTransient(err) {
		return
	}

	e.mu.Lock()
	e.cancelSilenceTimerLocked()
	e.state = StateError
	e.mu.Unlock()

	e.invokeError(err)
}

// handleSourceClosed supervises a source that ended while the endpointer
// still believes it is listening. Restarts are bounded to avoid a restart
// storm against a source that cannot stay up.
func (e *Endpointer) handleSourceClosed() {
	e.mu.Lock()
	if e.state != StateListening {
		e.mu.Unlock()
		return
	}

	if e.restarts >= e.config.maxRestarts {
		e.cancelSilenceTimerLocked()
		e.state = StateError
		e.mu.Unlock()
		e.invokeError(ErrRestartsExhausted)
		return
	}

	e.restarts++
	ctx := e.baseContext
	e.mu.Unlock()

	if err := e.startSource(ctx); err != nil {
		e.mu.Lock()
		e.state = StateError
		e.mu.Unlock()
		e.invokeError(fmt.Errorf("failed to restart recognition source: %w", err))
	}
}

func (e *Endpointer) armSilenceTimerLocked() {
	e.cancelSilenceTimerLocked()

	e.timerGeneration++
	generation := e.timerGeneration
	e.silenceTimer = time.AfterFunc(e.config.silenceTimeout, func() {
		e.flushUtterance(generation)
	})
}

func (e *Endpointer) cancelSilenceTimerLocked() {
	e.timerGeneration++
	if e.silenceTimer != nil {
		e.silenceTimer.Stop()
		e.silenceTimer = nil
	}
}

func (e *Endpointer) flushUtterance(generation int) {
	e.mu.Lock()
	if generation != e.timerGeneration || e.state != StateListening {
		e.mu.Unlock()
		return
	}

	text := strings.TrimSpace(e.accumulator)
	e.accumulator = ""
	e.silenceTimer = nil
	e.mu.Unlock()

	if text == "" {
		return
	}

	if e.callbacks.onFinal != nil {
		e.callbacks.onFinal(text)
	}
	if e.callbacks.onSpeechEnded != nil {
		e.callbacks.onSpeechEnded()
	}
}

func (e *Endpointer) invokeError(err error) {
	if e.callbacks.onError != nil {
		e.callbacks.onError(err)
	}
}

func joinTranscript(accumulated, tail string) string {
	if accumulated == "" {
		return tail
	}
	return accumulated + " " + tail
}
