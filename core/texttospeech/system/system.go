// Package system speaks text through the operating system's own speech
// synthesis command. It is the last playback tier: no service audio, no
// loop videos, just an audible rendition of the reply text.
package system

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"go.opentelemetry.io/otel/codes"
)

// DefaultRate is the speaking rate in words per minute.
const DefaultRate = 175

// Synthesizer speaks text through `say` on macOS and `espeak` elsewhere.
// Speak is blocking and serial; the playback coordinator already guarantees
// at most one utterance plays at a time.
type Synthesizer struct {
	voice string
	rate  int

	// runCommand is replaced in tests to avoid invoking real binaries.
	runCommand  func(ctx context.Context, name string, args ...string) error
	listVoices  func(ctx context.Context) (string, error)
	commandName string
}

type SynthesizerOption func(*Synthesizer)

// WithVoice sets the system voice to speak with. An empty or unknown voice
// falls back to the system default.
func WithVoice(voice string) SynthesizerOption {
	return func(s *Synthesizer) { s.voice = voice }
}

// WithRate sets the speaking rate in words per minute.
func WithRate(rate int) SynthesizerOption {
	return func(s *Synthesizer) {
		if rate > 0 {
			s.rate = rate
		}
	}
}

// NewSynthesizer creates a synthesizer backed by the platform speech command.
func NewSynthesizer(opts ...SynthesizerOption) *Synthesizer {
	synthesizer := &Synthesizer{
		rate:        DefaultRate,
		commandName: speechCommand(),
	}
	synthesizer.runCommand = func(ctx context.Context, name string, args ...string) error {
		return exec.CommandContext(ctx, name, args...).Run()
	}
	synthesizer.listVoices = func(ctx context.Context) (string, error) {
		output, err := exec.CommandContext(ctx, synthesizer.commandName, voiceListArgs()...).Output()
		return string(output), err
	}

	for _, opt := range opts {
		opt(synthesizer)
	}

	return synthesizer
}

func speechCommand() string {
	if runtime.GOOS == "darwin" {
		return "say"
	}
	return "espeak"
}

func voiceListArgs() []string {
	if runtime.GOOS == "darwin" {
		return []string{"-v", "?"}
	}
	return []string{"--voices"}
}

// Available reports whether the platform speech command exists.
func (s *Synthesizer) Available() bool {
	_, err := exec.LookPath(s.commandName)
	return err == nil
}

// Speak renders text audibly and blocks until playback finishes or ctx is
// cancelled.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "speak")
	defer span.End()

	var args []string
	if s.voice != "" {
		args = append(args, "-v", s.voice)
	}
	if s.rate != DefaultRate {
		if s.commandName == "say" {
			args = append(args, "-r", fmt.Sprintf("%d", s.rate))
		} else {
			args = append(args, "-s", fmt.Sprintf("%d", s.rate))
		}
	}
	args = append(args, text)

	if err := s.runCommand(ctx, s.commandName, args...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	return nil
}

// Voices lists the voices the platform speech command offers.
func (s *Synthesizer) Voices(ctx context.Context) ([]Voice, error) {
	output, err := s.listVoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list system voices: %w", err)
	}
	return parseVoiceList(output), nil
}
