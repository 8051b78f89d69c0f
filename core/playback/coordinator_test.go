package playback

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmarkovic/trainer-core/core/audio"
	"github.com/dmarkovic/trainer-core/core/events"
	"github.com/dmarkovic/trainer-core/core/media"
)

type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *opLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

type audioPlayerStub struct {
	log     *opLog
	err     error
	block   chan struct{}
	lastPCM []byte
}

func (p *audioPlayerStub) Play(ctx context.Context, pcm []byte, encodingInfo audio.EncodingInfo) error {
	p.lastPCM = pcm
	p.log.add("audio")
	if p.block != nil {
		<-p.block
	}
	return p.err
}

type surfaceStub struct {
	log *opLog
}

func (s *surfaceStub) SetSource(resourceURL string) {
	s.log.add("source:" + resourceURL)
}

type synthesizerStub struct {
	log    *opLog
	spoken []string
}

func (s *synthesizerStub) Speak(ctx context.Context, text string) error {
	s.log.add("speak")
	s.spoken = append(s.spoken, text)
	return nil
}

type loopsStub struct {
	ready   bool
	idle    *media.Handle
	talking *media.Handle
}

func (l *loopsStub) Ready() bool { return l.ready }

func (l *loopsStub) IdleHandle() *media.Handle { return l.idle }

func (l *loopsStub) TalkingHandle() *media.Handle { return l.talking }

func testLoops(t *testing.T) *loopsStub {
	t.Helper()
	idle, err := media.Acquire(media.KindVideo, []byte("idle"))
	if err != nil {
		t.Fatalf("failed to stage idle loop: %v", err)
	}
	talking, err := media.Acquire(media.KindVideo, []byte("talking"))
	if err != nil {
		t.Fatalf("failed to stage talking loop: %v", err)
	}
	t.Cleanup(func() {
		idle.Release()
		talking.Release()
	})
	return &loopsStub{ready: true, idle: idle, talking: talking}
}

func wavBase64(payload []byte) string {
	data := make([]byte, 0, 44+len(payload))
	data = append(data, []byte("RIFF")...)
	data = binary.LittleEndian.AppendUint32(data, uint32(36+len(payload)))
	data = append(data, []byte("WAVE")...)
	data = append(data, []byte("fmt ")...)
	data = binary.LittleEndian.AppendUint32(data, 16)
	data = binary.LittleEndian.AppendUint16(data, 1)
	data = binary.LittleEndian.AppendUint16(data, 1)
	data = binary.LittleEndian.AppendUint32(data, 16000)
	data = binary.LittleEndian.AppendUint32(data, 32000)
	data = binary.LittleEndian.AppendUint16(data, 2)
	data = binary.LittleEndian.AppendUint16(data, 16)
	data = append(data, []byte("data")...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(payload)))
	data = append(data, payload...)
	return base64.StdEncoding.EncodeToString(data)
}

func TestPlaySelectsLoopPlaybackOrdering(t *testing.T) {
	log := &opLog{}
	loops := testLoops(t)
	player := &audioPlayerStub{log: log}

	coordinator := NewCoordinator(
		WithAudioPlayer(player),
		WithVideoSurface(&surfaceStub{log: log}),
		WithLoops(loops),
	)
	defer coordinator.Close()

	tier, err := coordinator.Play(context.Background(), PlayRequest{
		AudioBase64: wavBase64([]byte{1, 2, 3, 4}),
		ReplyText:   "Let me help with that.",
	})
	if err != nil {
		t.Fatalf("expected play to succeed, got %v", err)
	}
	if tier != TierLoopPlayback {
		t.Fatalf("expected loop playback tier, got %q", tier)
	}

	ops := log.snapshot()
	if len(ops) != 3 {
		t.Fatalf("expected talking/audio/idle sequence, got %v", ops)
	}
	if ops[0] != "source:"+loops.talking.ResourceURL() {
		t.Fatalf("expected talking loop strictly before audio, got %v", ops)
	}
	if ops[1] != "audio" {
		t.Fatalf("expected audio between loop swaps, got %v", ops)
	}
	if ops[2] != "source:"+loops.idle.ResourceURL() {
		t.Fatalf("expected idle loop strictly after audio, got %v", ops)
	}

	if len(player.lastPCM) != 4 {
		t.Fatalf("expected decoded PCM payload, got %d bytes", len(player.lastPCM))
	}
}

func TestPlayFallsBackToAudioOnly(t *testing.T) {
	log := &opLog{}
	coordinator := NewCoordinator(
		WithAudioPlayer(&audioPlayerStub{log: log}),
		WithVideoSurface(&surfaceStub{log: log}),
		WithLoops(&loopsStub{ready: false}),
	)
	defer coordinator.Close()

	tier, err := coordinator.Play(context.Background(), PlayRequest{
		AudioBase64: wavBase64([]byte{1, 2}),
	})
	if err != nil || tier != TierAudioOnly {
		t.Fatalf("expected audio-only tier, got %q, %v", tier, err)
	}

	for _, op := range log.snapshot() {
		if op != "audio" {
			t.Fatalf("expected no loop swaps on audio-only tier, got %v", log.snapshot())
		}
	}
}

func TestPlaySpeaksVerbatimWithoutAudio(t *testing.T) {
	log := &opLog{}
	synthesizer := &synthesizerStub{log: log}
	coordinator := NewCoordinator(
		WithAudioPlayer(&audioPlayerStub{log: log}),
		WithSpeechSynthesizer(synthesizer),
		WithLoops(testLoops(t)),
	)
	defer coordinator.Close()

	tier, err := coordinator.Play(context.Background(), PlayRequest{
		ReplyText: "I hear you. Tell me more about the noise.",
	})
	if err != nil || tier != TierSpeechFallback {
		t.Fatalf("expected speech fallback tier, got %q, %v", tier, err)
	}

	if len(synthesizer.spoken) != 1 || synthesizer.spoken[0] != "I hear you. Tell me more about the noise." {
		t.Fatalf("expected verbatim reply text to be spoken, got %v", synthesizer.spoken)
	}
}

func TestPlayDropsConcurrentRequests(t *testing.T) {
	log := &opLog{}
	player := &audioPlayerStub{log: log, block: make(chan struct{})}
	coordinator := NewCoordinator(WithAudioPlayer(player))
	defer coordinator.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		coordinator.Play(context.Background(), PlayRequest{AudioBase64: wavBase64([]byte{1, 2})})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !coordinator.Playing() {
		if time.Now().After(deadline) {
			t.Fatalf("first play never started")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := coordinator.Play(context.Background(), PlayRequest{AudioBase64: wavBase64([]byte{3, 4})}); !errors.Is(err, ErrPlaybackActive) {
		t.Fatalf("expected concurrent play to be dropped, got %v", err)
	}

	close(player.block)
	<-done

	if _, err := coordinator.Play(context.Background(), PlayRequest{ReplyText: "hi"}); errors.Is(err, ErrPlaybackActive) {
		t.Fatalf("expected the slot to free after playback ended")
	}
}

func TestPlayAudioFailureStillRestoresIdleLoop(t *testing.T) {
	log := &opLog{}
	loops := testLoops(t)
	coordinator := NewCoordinator(
		WithAudioPlayer(&audioPlayerStub{log: log, err: errors.New("device gone")}),
		WithVideoSurface(&surfaceStub{log: log}),
		WithLoops(loops),
	)
	defer coordinator.Close()

	tier, err := coordinator.Play(context.Background(), PlayRequest{
		AudioBase64: wavBase64([]byte{1, 2}),
	})
	if err != nil {
		t.Fatalf("expected tier failure to be resolved internally, got %v", err)
	}
	if tier != TierLoopPlayback {
		t.Fatalf("expected loop playback tier, got %q", tier)
	}

	ops := log.snapshot()
	if ops[len(ops)-1] != "source:"+loops.idle.ResourceURL() {
		t.Fatalf("expected idle loop restored after audio failure, got %v", ops)
	}
}

func TestPlayUndecodableAudioFallsBackToSpeech(t *testing.T) {
	log := &opLog{}
	synthesizer := &synthesizerStub{log: log}
	coordinator := NewCoordinator(
		WithAudioPlayer(&audioPlayerStub{log: log}),
		WithSpeechSynthesizer(synthesizer),
	)
	defer coordinator.Close()

	tier, err := coordinator.Play(context.Background(), PlayRequest{
		AudioBase64: base64.StdEncoding.EncodeToString([]byte("not a wav")),
		ReplyText:   "fallback text",
	})
	if err != nil || tier != TierSpeechFallback {
		t.Fatalf("expected fallback tier for undecodable audio, got %q, %v", tier, err)
	}
	if len(synthesizer.spoken) != 1 {
		t.Fatalf("expected fallback text to be spoken, got %v", synthesizer.spoken)
	}
}

func TestPlayEmitsLifecycleEvents(t *testing.T) {
	var emitted []events.Event
	coordinator := NewCoordinator(
		WithSpeechSynthesizer(&synthesizerStub{log: &opLog{}}),
		WithEventEmitter(func(event events.Event) { emitted = append(emitted, event) }),
	)
	defer coordinator.Close()

	if _, err := coordinator.Play(context.Background(), PlayRequest{ReplyText: "hello"}); err != nil {
		t.Fatalf("expected play to succeed, got %v", err)
	}

	if len(emitted) != 2 {
		t.Fatalf("expected started and ended events, got %d", len(emitted))
	}
	started, ok := emitted[0].(events.PlaybackStarted)
	if !ok || started.Tier != TierSpeechFallback.String() {
		t.Fatalf("unexpected first event: %+v", emitted[0])
	}
	if _, ok := emitted[1].(events.PlaybackEnded); !ok {
		t.Fatalf("unexpected second event: %+v", emitted[1])
	}
}
