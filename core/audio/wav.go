package audio

import (
	"encoding/binary"
	"fmt"
)

const (
	wavFormatPCM   = 1
	wavFormatALaw  = 6
	wavFormatMulaw = 7
)

// ParseWAV extracts the PCM payload and encoding metadata from a RIFF/WAVE
// byte stream. Only the encodings the playback clients understand are
// accepted: 16-bit linear PCM, mu-law and A-law.
func ParseWAV(data []byte) ([]byte, EncodingInfo, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, EncodingInfo{}, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var info EncodingInfo
	var pcm []byte
	sawFormat := false

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			// Tolerate a truncated final data chunk; some encoders write the
			// header before the payload length is known.
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, EncodingInfo{}, fmt.Errorf("malformed fmt chunk (%d bytes)", chunkSize)
			}
			formatTag := binary.LittleEndian.Uint16(data[body : body+2])
			channels := int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate := int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample := binary.LittleEndian.Uint16(data[body+14 : body+16])

			format, err := wavFormat(formatTag, bitsPerSample)
			if err != nil {
				return nil, EncodingInfo{}, err
			}

			info = EncodingInfo{SampleRate: sampleRate, Channels: channels, Format: format}
			sawFormat = true

		case "data":
			pcm = data[body : body+chunkSize]
		}

		if chunkSize%2 == 1 {
			chunkSize++ // chunks are word-aligned
		}
		offset = body + chunkSize
	}

	if !sawFormat {
		return nil, EncodingInfo{}, fmt.Errorf("missing fmt chunk")
	}
	if pcm == nil {
		return nil, EncodingInfo{}, fmt.Errorf("missing data chunk")
	}

	return pcm, info, nil
}

func wavFormat(formatTag uint16, bitsPerSample uint16) (encodingFormat, error) {
	switch formatTag {
	case wavFormatPCM:
		if bitsPerSample != 16 {
			return "", fmt.Errorf("unsupported PCM bit depth: %d", bitsPerSample)
		}
		return EncodingLinear16, nil
	case wavFormatALaw:
		return EncodingALaw, nil
	case wavFormatMulaw:
		return EncodingMulaw, nil
	}
	return "", fmt.Errorf("unsupported WAVE format tag: %d", formatTag)
}
