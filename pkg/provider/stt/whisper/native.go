// This file contains the NativeProvider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/MrWong99/pronuncia/pkg/provider/stt"
)

// whisperSampleRate is the only sample rate the whisper.cpp models accept.
const whisperSampleRate = 16000

// Compile-time assertion that NativeProvider satisfies stt.Transcriber.
var _ stt.Transcriber = (*NativeProvider)(nil)

// NativeProvider implements stt.Transcriber using whisper.cpp Go bindings
// (CGO). The model is loaded once at startup and shared across all calls.
type NativeProvider struct {
	model    whisperlib.Model
	language string
}

// NativeOption is a functional option for configuring a NativeProvider.
type NativeOption func(*NativeProvider)

// WithNativeLanguage sets the language code for transcription. Defaults to "pt".
func WithNativeLanguage(lang string) NativeOption {
	return func(p *NativeProvider) { p.language = lang }
}

// NewNative creates a NativeProvider that loads the whisper.cpp model from
// the given file path. The caller must call Close when the provider is no
// longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeProvider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &NativeProvider{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model.
func (p *NativeProvider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// Transcribe implements stt.Transcriber. The file must be a 16 kHz, 16-bit
// PCM WAV; other encodings are rejected.
func (p *NativeProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("whisper: open audio: %w", err)
	}
	defer f.Close()

	w, err := decodeWAV(f)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	if w.sampleRate != whisperSampleRate {
		return "", fmt.Errorf("whisper: sample rate %d Hz not supported, need %d Hz", w.sampleRate, whisperSampleRate)
	}
	if len(w.pcm) == 0 {
		return "", stt.ErrEmptyAudio
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.infer(w.monoSamples())
}

// infer runs whisper.cpp inference on samples using a fresh context and
// returns the concatenated segment text.
func (p *NativeProvider) infer(samples []float32) (string, error) {
	// Each context is NOT thread-safe, but the model can be shared.
	wctx, err := p.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(p.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", p.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}
