// Package gcpspeech provides a transcriber backed by Google Cloud
// Speech-to-Text (synchronous Recognize, suited to short recordings).
package gcpspeech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/MrWong99/pronuncia/pkg/provider/stt"
)

const defaultLanguageCode = "pt-BR"

// Provider implements stt.Transcriber using Cloud Speech-to-Text.
type Provider struct {
	client       *speech.Client
	languageCode string
	model        string
}

// Option is a functional option for Provider.
type Option func(*Provider)

// WithLanguageCode sets the BCP-47 language code. Defaults to "pt-BR".
func WithLanguageCode(code string) Option {
	return func(p *Provider) { p.languageCode = code }
}

// WithModel selects a recognition model such as "latest_short".
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// New creates a Speech client. With no client options the application
// default credentials are used.
func New(ctx context.Context, clientOpts []option.ClientOption, opts ...Option) (*Provider, error) {
	c, err := speech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcpspeech: new client: %w", err)
	}
	p := &Provider{client: c, languageCode: defaultLanguageCode}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Transcribe implements stt.Transcriber.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("gcpspeech: read audio: %w", err)
	}
	if len(data) == 0 {
		return "", stt.ErrEmptyAudio
	}

	resp, err := p.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig(audioPath, p.languageCode, p.model),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: data}},
	})
	if err != nil {
		return "", fmt.Errorf("gcpspeech: recognize: %w", err)
	}
	return joinResults(resp.GetResults()), nil
}

func recognitionConfig(audioPath, languageCode, model string) *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		LanguageCode:               languageCode,
		Model:                      model,
		Encoding:                   inferEncoding(stt.MIMEType(audioPath), audioPath),
		EnableAutomaticPunctuation: true,
	}
}

// inferEncoding maps the upload's type to a Speech encoding. WAV and FLAC
// carry their sample rate in the header so none is set explicitly.
func inferEncoding(mimeType, path string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(mimeType)
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case strings.Contains(m, "wav") || ext == ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac") || ext == ".flac":
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mpeg") || ext == ".mp3":
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "webm") || ext == ".webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	case strings.Contains(m, "ogg") || ext == ".ogg" || ext == ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

// joinResults concatenates the top alternative of every result.
func joinResults(results []*speechpb.SpeechRecognitionResult) string {
	var parts []string
	for _, r := range results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

var _ stt.Transcriber = (*Provider)(nil)
