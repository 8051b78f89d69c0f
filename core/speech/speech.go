// Package speech converts a continuous stream of partial recognition results
// into discrete, silence-delimited utterances.
//
// The package separates two responsibilities: a [RecognitionSource] produces
// raw interim and finalized transcription segments (typically from a
// streaming provider), while the [Endpointer] owns the accumulator and the
// silence timer that decide where one utterance ends and the next begins.
package speech

import (
	"context"
	"errors"

	"github.com/dmarkovic/trainer-core/core/audio"
)

// RecognitionSource is a continuous, interim-result-emitting transcription
// stream. Implementations deliver results through the callbacks registered
// via recognition options and report an unexpected stream end through the
// closed callback.
type RecognitionSource interface {
	Start(ctx context.Context, opts ...RecognitionOption) error
	SendAudio(audio []byte) error
	Stop() error
}

var (
	// ErrUnsupported reports that no usable recognition capability exists.
	ErrUnsupported = errors.New("speech recognition not supported")
	// ErrPermissionDenied reports that audio capture permission was refused.
	ErrPermissionDenied = errors.New("speech recognition permission denied")
	// ErrRestartsExhausted reports that the supervised-restart budget for an
	// unexpectedly ending source ran out.
	ErrRestartsExhausted = errors.New("recognition source restart budget exhausted")

	// ErrNoSpeech and ErrAborted are transient source conditions. The
	// endpointer swallows them; they never surface through the error callback.
	ErrNoSpeech = errors.New("no speech detected")
	ErrAborted  = errors.New("recognition aborted")
)

// IsTransient reports whether a source error should be swallowed rather than
// forcing the endpointer into its error state.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNoSpeech) || errors.Is(err, ErrAborted)
}

// RecognitionOptions carries the callbacks a source delivers results through.
type RecognitionOptions struct {
	InterimResultCallback func(transcript string)
	FinalResultCallback   func(transcript string)
	SpeechStartedCallback func()
	ErrorCallback         func(err error)
	ClosedCallback        func()

	EncodingInfo audio.EncodingInfo
}

type RecognitionOption func(*RecognitionOptions)

func WithInterimResultCallback(callback func(transcript string)) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.InterimResultCallback = callback
	}
}

func WithFinalResultCallback(callback func(transcript string)) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.FinalResultCallback = callback
	}
}

func WithSourceSpeechStartedCallback(callback func()) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSourceErrorCallback(callback func(err error)) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.ErrorCallback = callback
	}
}

func WithClosedCallback(callback func()) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.ClosedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.EncodingInfo = encodingInfo
	}
}
