package whisper

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const bitsPerSample = 16

var errNotWAV = errors.New("not a RIFF/WAVE file")

// wavAudio is the decoded payload of a PCM WAV file.
type wavAudio struct {
	sampleRate int
	channels   int
	pcm        []byte
}

// decodeWAV reads a RIFF/WAVE stream and returns its raw 16-bit PCM data.
// Chunks other than "fmt " and "data" are skipped.
func decodeWAV(r io.Reader) (wavAudio, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return wavAudio{}, errNotWAV
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return wavAudio{}, errNotWAV
	}

	var (
		out    wavAudio
		gotFmt bool
	)
	for {
		var ch [8]byte
		if _, err := io.ReadFull(r, ch[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return wavAudio{}, errors.New("wav: missing data chunk")
			}
			return wavAudio{}, fmt.Errorf("wav: read chunk header: %w", err)
		}
		id := string(ch[0:4])
		size := int64(binary.LittleEndian.Uint32(ch[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return wavAudio{}, fmt.Errorf("wav: fmt chunk too short (%d bytes)", size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return wavAudio{}, fmt.Errorf("wav: read fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			bps := binary.LittleEndian.Uint16(body[14:16])
			if format != 1 || bps != bitsPerSample {
				return wavAudio{}, fmt.Errorf("wav: only 16-bit PCM supported (format=%d bits=%d)", format, bps)
			}
			out.channels = int(binary.LittleEndian.Uint16(body[2:4]))
			out.sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			gotFmt = true
		case "data":
			if !gotFmt {
				return wavAudio{}, errors.New("wav: data chunk before fmt chunk")
			}
			pcm, err := io.ReadAll(io.LimitReader(r, size))
			if err != nil {
				return wavAudio{}, fmt.Errorf("wav: read data chunk: %w", err)
			}
			out.pcm = pcm
			return out, nil
		default:
			// Chunks are word aligned.
			if _, err := io.CopyN(io.Discard, r, size+size%2); err != nil {
				return wavAudio{}, fmt.Errorf("wav: skip %q chunk: %w", id, err)
			}
		}
	}
}

// monoSamples converts the PCM payload to float32 samples in [-1, 1],
// averaging all channels of each frame. A trailing partial frame is dropped.
func (w wavAudio) monoSamples() []float32 {
	ch := max(w.channels, 1)
	frameBytes := 2 * ch
	frames := len(w.pcm) / frameBytes
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for c := range ch {
			off := i*frameBytes + c*2
			sum += float32(int16(binary.LittleEndian.Uint16(w.pcm[off:off+2]))) / 32768.0
		}
		out[i] = sum / float32(ch)
	}
	return out
}
