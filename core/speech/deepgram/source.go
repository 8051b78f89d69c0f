// Package deepgram provides a speech.RecognitionSource over the Deepgram
// live-transcription websocket.
//
// The source forwards raw interim and finalized segments; utterance
// endpointing (accumulation and the silence timeout) is owned by the
// speech.Endpointer layered on top of it.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/dmarkovic/trainer-core/core/audio"
	"github.com/dmarkovic/trainer-core/core/speech"
	"github.com/gorilla/websocket"
)

var _ speech.RecognitionSource = (*Source)(nil)

// Source streams captured audio to Deepgram and reports transcription
// results through the callbacks registered at Start.
type Source struct {
	connMu sync.Mutex
	conn   *websocket.Conn

	lastMsgTs time.Time
	stopping  bool

	silenceCancel context.CancelFunc
}

// NewSource creates an unconnected source. The websocket is dialed on Start.
func NewSource() *Source {
	return &Source{}
}

func (s *Source) Start(ctx context.Context, opts ...speech.RecognitionOption) error {
	options := &speech.RecognitionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := connectWebsocket(connectionOptions{
		sampleRate:        encoding.SampleRate,
		encoding:          encoding.Format.Name(),
		detectSpeechStart: options.SpeechStartedCallback != nil,
		interimResults:    options.InterimResultCallback != nil,
	})
	if err != nil {
		if options.ErrorCallback != nil {
			options.ErrorCallback(fmt.Errorf("%w: %v", speech.ErrUnsupported, err))
		}
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	silenceCtx, silenceCancel := context.WithCancel(ctx)

	s.connMu.Lock()
	s.conn = conn
	s.stopping = false
	s.silenceCancel = silenceCancel
	s.connMu.Unlock()

	go s.generateSilence(silenceCtx, options.EncodingInfo)
	go s.readAndProcessMessages(ctx, conn, *options)

	return nil
}

type connectionOptions struct {
	sampleRate int
	encoding   string

	detectSpeechStart bool
	interimResults    bool
}

func connectWebsocket(options connectionOptions) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenUrl, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", "nova-3")
	queryParams.Set("language", "en-US")
	queryParams.Set("smart_format", "true")
	if options.interimResults {
		queryParams.Set("interim_results", "true")
	}
	queryParams.Set("endpointing", "300")
	if options.detectSpeechStart {
		queryParams.Set("vad_events", "true")
	}

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(listenUrl.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, err
}

func (s *Source) SendAudio(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("source not started")
	}

	s.lastMsgTs = time.Now()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

// Stop closes the stream gracefully. The read loop's closed callback is
// suppressed so a requested stop is not mistaken for an unexpected end.
func (s *Source) Stop() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.stopping = true
	if s.silenceCancel != nil {
		s.silenceCancel()
		s.silenceCancel = nil
	}

	if s.conn != nil {
		if err := s.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
			return fmt.Errorf("failed to close deepgram stream: %w", err)
		}
	}
	return nil
}

func (s *Source) sendSilence(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return nil
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (s *Source) sendKeepAlive() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return
	}
	if err := s.conn.WriteJSON(
		struct {
			Type string `json:"type"`
		}{
			Type: "KeepAlive",
		}); err != nil {
		log.Println("Failed to write to deepgram client", "error", err)
	}
}

func (s *Source) readAndProcessMessages(_ context.Context, conn *websocket.Conn, options speech.RecognitionOptions) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				log.Println("Failed to read deepgram websocket message", "error", err)
			}

			s.connMu.Lock()
			s.conn = nil
			requested := s.stopping
			if s.silenceCancel != nil {
				s.silenceCancel()
				s.silenceCancel = nil
			}
			s.connMu.Unlock()
			conn.Close()

			if !requested && options.ClosedCallback != nil {
				options.ClosedCallback()
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(msg, options)
		}
	}
}

func (s *Source) processMessage(msg []byte, options speech.RecognitionOptions) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Println("Failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message", err)
			return
		}
		if len(msgResp.Channel.Alternatives) == 0 {
			return
		}

		transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if len(transcript) == 0 {
			return
		}

		if msgResp.IsFinal {
			if options.FinalResultCallback != nil {
				options.FinalResultCallback(transcript)
			}
		} else if options.InterimResultCallback != nil {
			options.InterimResultCallback(transcript)
		}

	case api.TypeSpeechStartedResponse:
		var msgResp api.SpeechStartedResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message", err)
			return
		}

		if options.SpeechStartedCallback != nil {
			options.SpeechStartedCallback()
		}
	}
}

// generateSilence keeps the websocket fed while the microphone is quiet.
// Deepgram closes streams that stop receiving audio; sending silence frames
// for the first second of a gap and keep-alives after that holds the
// connection open without affecting transcription.
func (s *Source) generateSilence(ctx context.Context, encoding audio.EncodingInfo) {
	type silenceGeneratorState string
	const (
		silenceGeneratorStateWaiting   silenceGeneratorState = "waiting"
		silenceGeneratorStateSilence   silenceGeneratorState = "silence"
		silenceGeneratorStateKeepAlive silenceGeneratorState = "keepAlive"
	)

	const durationMs = 50
	const millisecondsPerSecond = 1000
	ticker := time.NewTicker(durationMs * time.Millisecond)

	chunk := make([]byte, encoding.SampleRate*encoding.BytesPerFrame()*durationMs/millisecondsPerSecond)
	for i := range chunk {
		chunk[i] = encoding.SilenceValue()
	}

	var state = silenceGeneratorStateWaiting
	var firstSilenceTime time.Time
	var lastKeepAliveTime time.Time
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return
		case <-ticker.C:
			switch state {
			case silenceGeneratorStateWaiting:
				if time.Since(s.lastMsgTs).Milliseconds() > 50 {
					state = silenceGeneratorStateSilence
					firstSilenceTime = time.Now()
					continue
				}

			case silenceGeneratorStateSilence:
				if time.Since(s.lastMsgTs).Milliseconds() < 50 {
					state = silenceGeneratorStateWaiting
					continue
				}
				if time.Since(firstSilenceTime).Milliseconds() >= 1000 {
					state = silenceGeneratorStateKeepAlive
					lastKeepAliveTime = time.Now()
					continue
				}

				if err := s.sendSilence(chunk); err != nil {
					log.Println("Sending silence audio error", err)
				}

			case silenceGeneratorStateKeepAlive:
				if time.Since(s.lastMsgTs).Milliseconds() < 50 {
					state = silenceGeneratorStateWaiting
					continue
				}

				if time.Since(lastKeepAliveTime).Seconds() >= 5 {
					lastKeepAliveTime = time.Now()
					s.sendKeepAlive()
				}
			}
		}
	}
}
