// Package portaudio backs reply playback and microphone capture with
// PortAudio. It is the alternative to the miniaudio client on systems where
// PortAudio is the better-supported route.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/dmarkovic/trainer-core/core/audio"
	"github.com/gordonklaus/portaudio"
)

type Client struct {
	bufferSize int
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &Client{bufferSize: bufferSize}, nil
}

// Play plays decoded PCM through the default output device and blocks until
// all of it has been written or ctx is cancelled.
func (c *Client) Play(ctx context.Context, pcm []byte, encodingInfo audio.EncodingInfo) error {
	if len(pcm) == 0 {
		return nil
	}
	if encodingInfo.Format != audio.EncodingLinear16 {
		return fmt.Errorf("unsupported playback format %q", encodingInfo.Format.Name())
	}

	out := make([]int16, c.bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(encodingInfo.SampleRate), c.bufferSize, out)
	if err != nil {
		return fmt.Errorf("failed to open PortAudio stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start PortAudio stream: %w", err)
	}
	defer stream.Stop()

	chunk := c.bufferSize * 2
	for offset := 0; offset < len(pcm); offset += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := offset + chunk
		if end > len(pcm) {
			end = len(pcm)
			for i := range out {
				out[i] = 0
			}
		}

		if err := binary.Read(bytes.NewReader(pcm[offset:end]), binary.LittleEndian, out[:(end-offset)/2]); err != nil {
			return fmt.Errorf("failed to stage audio chunk: %w", err)
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write to PortAudio stream: %w", err)
		}
	}

	return nil
}

// Stream captures microphone audio and forwards it until ctx is cancelled.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	in := make([]int16, c.bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(audio.DefaultSampleRate), c.bufferSize, in)
	if err != nil {
		return fmt.Errorf("failed to open PortAudio capture stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start PortAudio capture stream: %w", err)
	}
	defer stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := stream.Read(); err != nil {
				log.Printf("Failed to read from PortAudio stream: %v", err)
				continue
			}

			audioBuffer := bytes.Buffer{}
			binary.Write(&audioBuffer, binary.LittleEndian, in)
			onAudio(audioBuffer.Bytes())
		}
	}
}

func (c *Client) Close() {
	portaudio.Terminate()
}

// EncodingInfo describes the capture stream fed to recognition.
func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
		Format:     audio.EncodingLinear16,
	}
}
