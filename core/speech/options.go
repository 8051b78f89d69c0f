package speech

import (
	"time"

	"github.com/dmarkovic/trainer-core/core/audio"
)

const (
	// DefaultSilenceTimeout is how long accumulated speech must stay silent
	// before it is finalized into one utterance.
	DefaultSilenceTimeout = 1500 * time.Millisecond
	// DefaultMaxRestarts bounds supervised restarts of a source that keeps
	// ending unexpectedly while listening.
	DefaultMaxRestarts = 5
)

type endpointerCallbacks struct {
	onInterim       func(transcript string)
	onFinal         func(text string)
	onSpeechStarted func()
	onSpeechEnded   func()
	onError         func(err error)
}

type endpointerConfig struct {
	silenceTimeout time.Duration
	maxRestarts    int
	encodingInfo   audio.EncodingInfo
}

type Option func(*Endpointer)

// WithSilenceTimeout overrides the silence gap that delimits utterances.
func WithSilenceTimeout(timeout time.Duration) Option {
	return func(e *Endpointer) {
		if timeout > 0 {
			e.config.silenceTimeout = timeout
		}
	}
}

// WithMaxRestarts bounds how many times an unexpectedly ending source is
// restarted before the endpointer gives up and enters its error state.
func WithMaxRestarts(maxRestarts int) Option {
	return func(e *Endpointer) {
		if maxRestarts >= 0 {
			e.config.maxRestarts = maxRestarts
		}
	}
}

// WithSourceEncodingInfo sets the encoding the source is started with.
func WithSourceEncodingInfo(encodingInfo audio.EncodingInfo) Option {
	return func(e *Endpointer) {
		e.config.encodingInfo = encodingInfo
	}
}

// WithInterimCallback registers a callback for interim transcript updates.
// The callback receives the accumulated finalized text joined with the
// current interim tail.
func WithInterimCallback(callback func(transcript string)) Option {
	return func(e *Endpointer) {
		e.callbacks.onInterim = callback
	}
}

// WithFinalCallback registers a callback for finalized utterances.
func WithFinalCallback(callback func(text string)) Option {
	return func(e *Endpointer) {
		e.callbacks.onFinal = callback
	}
}

// WithSpeechStartedCallback registers a callback for speech activity start.
func WithSpeechStartedCallback(callback func()) Option {
	return func(e *Endpointer) {
		e.callbacks.onSpeechStarted = callback
	}
}

// WithSpeechEndedCallback registers a callback fired after an utterance is
// finalized by the silence timer.
func WithSpeechEndedCallback(callback func()) Option {
	return func(e *Endpointer) {
		e.callbacks.onSpeechEnded = callback
	}
}

// WithErrorCallback registers a callback for fatal endpointing errors.
// Transient source conditions are swallowed and never reach it.
func WithErrorCallback(callback func(err error)) Option {
	return func(e *Endpointer) {
		e.callbacks.onError = callback
	}
}
