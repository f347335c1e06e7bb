package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	wavFormatPCM       = 1
	wavFormatIEEEFloat = 3
)

// decodeWAV parses a RIFF/WAVE file into per-channel 32-bit float samples.
// Supported encodings are 16-bit integer PCM (what the transcode stage
// produces) and 32-bit IEEE float.
func decodeWAV(data []byte) (channels [][]float32, sampleRate int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		format        uint16
		numChannels   uint16
		bitsPerSample uint16
		rate          uint32
		pcm           []byte
	)

	// Walk the chunk list; fmt must precede data per the RIFF format, but tolerate
	// any ordering of the other chunks.
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkLen := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkLen > len(data) {
			return nil, 0, fmt.Errorf("truncated %q chunk", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short: %d bytes", chunkLen)
			}
			format = binary.LittleEndian.Uint16(data[body : body+2])
			numChannels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			rate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
		case "data":
			pcm = data[body : body+chunkLen]
		}

		// Chunks are word-aligned.
		pos = body + chunkLen
		if chunkLen%2 == 1 {
			pos++
		}
	}

	if numChannels == 0 || rate == 0 {
		return nil, 0, fmt.Errorf("missing or invalid fmt chunk")
	}
	if pcm == nil {
		return nil, 0, fmt.Errorf("missing data chunk")
	}

	switch {
	case format == wavFormatPCM && bitsPerSample == 16:
		channels = decodePCM16(pcm, int(numChannels))
	case format == wavFormatIEEEFloat && bitsPerSample == 32:
		channels = decodeFloat32(pcm, int(numChannels))
	default:
		return nil, 0, fmt.Errorf("unsupported wav encoding: format %d, %d bits", format, bitsPerSample)
	}

	return channels, int(rate), nil
}

func decodePCM16(pcm []byte, numChannels int) [][]float32 {
	frames := len(pcm) / (2 * numChannels)
	channels := make([][]float32, numChannels)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			off := (i*numChannels + ch) * 2
			v := int16(binary.LittleEndian.Uint16(pcm[off : off+2]))
			channels[ch][i] = float32(v) / 32768.0
		}
	}
	return channels
}

func decodeFloat32(pcm []byte, numChannels int) [][]float32 {
	frames := len(pcm) / (4 * numChannels)
	channels := make([][]float32, numChannels)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			off := (i*numChannels + ch) * 4
			bits := binary.LittleEndian.Uint32(pcm[off : off+4])
			channels[ch][i] = math.Float32frombits(bits)
		}
	}
	return channels
}

// encodeWAV serializes mono float32 samples as a 16-bit PCM wav file, the
// container the transcription backend accepts.
func encodeWAV(samples []float32, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)                   // bits per sample

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(buf[44+i*2:46+i*2], uint16(v))
	}

	return buf
}
