// Package whisper provides whisper.cpp-backed transcribers.
//
// [Provider] talks to a running whisper-server binary (POST /inference) and
// uploads the recorded file as-is; start the server with --convert to accept
// non-WAV uploads. [NativeProvider] loads a GGML model in-process through the
// CGO bindings and accepts 16-bit PCM WAV files.
//
// Usage:
//
//	p, err := whisper.New("http://localhost:8080", whisper.WithLanguage("pt"))
//	text, err := p.Transcribe(ctx, "/tmp/upload.wav")
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrWong99/pronuncia/pkg/provider/stt"
)

const defaultLanguage = "pt"

// Compile-time assertion that Provider implements stt.Transcriber.
var _ stt.Transcriber = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base", "small"). When empty the server uses whichever model it was
// started with.
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithLanguage sets the ISO-639-1 language code sent to the server. Defaults
// to "pt".
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithHTTPClient replaces the default HTTP client (30 s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = hc
	}
}

// Provider implements stt.Transcriber backed by a whisper.cpp HTTP server.
type Provider struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a new Provider that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe implements stt.Transcriber.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("whisper: read audio: %w", err)
	}
	if len(data) == 0 {
		return "", stt.ErrEmptyAudio
	}
	text, err := p.infer(ctx, filepath.Base(audioPath), data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// infer POSTs the audio to the whisper.cpp /inference endpoint as
// multipart/form-data. It returns the transcribed text or an error.
func (p *Provider) infer(ctx context.Context, name string, audio []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("whisper: write audio data: %w", err)
	}

	// Optional hint fields.
	if p.language != "" {
		if err := mw.WriteField("language", p.language); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if p.model != "" {
		if err := mw.WriteField("model", p.model); err != nil {
			return "", fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("whisper: write response_format field: %w", err)
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := p.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	return result.Text, nil
}
