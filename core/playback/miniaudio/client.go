// Package miniaudio backs reply playback and microphone capture with the
// miniaudio library through malgo.
package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmarkovic/trainer-core/core/audio"
	"github.com/gen2brain/malgo"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	captureClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{audioContext: audioCtx}

	if err := client.captureClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

// Play plays decoded PCM through the default output device and blocks until
// the buffer has drained or ctx is cancelled. Each call opens its own device
// so the sample rate can follow the reply audio.
func (c *Client) Play(ctx context.Context, pcm []byte, encodingInfo audio.EncodingInfo) error {
	if len(pcm) == 0 {
		return nil
	}
	if encodingInfo.Format != audio.EncodingLinear16 {
		return fmt.Errorf("unsupported playback format %q", encodingInfo.Format.Name())
	}

	channels := encodingInfo.Channels
	if channels == 0 {
		channels = 1
	}
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(encodingInfo.SampleRate)
	config.Playback.Format = format
	config.Playback.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = uint32(encodingInfo.SampleRate / 10)
	config.Periods = 4

	done := make(chan struct{})
	var closeDone sync.Once
	offset := 0

	device, err := malgo.InitDevice(c.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			if offset >= len(pcm) {
				// One extra callback after the last copy lets the device
				// drain the final period before we tear it down.
				closeDone.Do(func() { close(done) })
				return
			}

			need := int(frameCount) * bytesPerFrame
			n := copy(pOutput, pcm[offset:])
			offset += n
			for i := n; i < need && i < len(pOutput); i++ {
				pOutput[i] = encodingInfo.SilenceValue()
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	return c.captureClient.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

func (c *Client) Close() {
	_ = c.captureClient.Uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}

// EncodingInfo describes the capture stream fed to recognition.
func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
		Format:     audio.EncodingLinear16,
	}
}
