package audio

import (
	"encoding/binary"
	"testing"
)

func buildWAV(formatTag uint16, bitsPerSample uint16, sampleRate uint32, channels uint16, payload []byte) []byte {
	data := make([]byte, 0, 44+len(payload))
	data = append(data, []byte("RIFF")...)
	data = binary.LittleEndian.AppendUint32(data, uint32(36+len(payload)))
	data = append(data, []byte("WAVE")...)

	data = append(data, []byte("fmt ")...)
	data = binary.LittleEndian.AppendUint32(data, 16)
	data = binary.LittleEndian.AppendUint16(data, formatTag)
	data = binary.LittleEndian.AppendUint16(data, channels)
	data = binary.LittleEndian.AppendUint32(data, sampleRate)
	data = binary.LittleEndian.AppendUint32(data, sampleRate*uint32(channels)*uint32(bitsPerSample)/8)
	data = binary.LittleEndian.AppendUint16(data, channels*bitsPerSample/8)
	data = binary.LittleEndian.AppendUint16(data, bitsPerSample)

	data = append(data, []byte("data")...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(payload)))
	data = append(data, payload...)
	return data
}

func TestParseWAVLinear16(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	pcm, info, err := ParseWAV(buildWAV(wavFormatPCM, 16, 24000, 1, payload))
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	if info.SampleRate != 24000 || info.Channels != 1 || info.Format != EncodingLinear16 {
		t.Fatalf("unexpected encoding info: %+v", info)
	}
	if len(pcm) != len(payload) || pcm[0] != 1 || pcm[3] != 4 {
		t.Fatalf("unexpected payload: %v", pcm)
	}
}

func TestParseWAVMulaw(t *testing.T) {
	_, info, err := ParseWAV(buildWAV(wavFormatMulaw, 8, 8000, 1, []byte{0xFF}))
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if info.Format != EncodingMulaw {
		t.Fatalf("expected mulaw format, got %v", info.Format)
	}
}

func TestParseWAVRejectsGarbage(t *testing.T) {
	if _, _, err := ParseWAV([]byte("definitely not audio")); err == nil {
		t.Fatalf("expected parse to fail on non-RIFF input")
	}
}

func TestParseWAVTruncatedDataChunk(t *testing.T) {
	full := buildWAV(wavFormatPCM, 16, 16000, 1, []byte{1, 2, 3, 4, 5, 6})
	pcm, _, err := ParseWAV(full[:len(full)-2])
	if err != nil {
		t.Fatalf("expected truncated data chunk to be tolerated, got %v", err)
	}
	if len(pcm) != 4 {
		t.Fatalf("expected 4 payload bytes after truncation, got %d", len(pcm))
	}
}

func TestEncodingInfoDuration(t *testing.T) {
	info := EncodingInfo{SampleRate: 16000, Channels: 1, Format: EncodingLinear16}
	if d := info.Duration(32000); d.Seconds() != 1 {
		t.Fatalf("expected 1s for 32000 bytes at 16kHz/16-bit, got %v", d)
	}
}
