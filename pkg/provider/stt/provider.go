// Package stt defines the Transcriber interface for speech-to-text backends.
//
// The scoring engine only ever compares text; transcription is a black-box
// capability that turns a recorded audio file into a string. Errors from a
// Transcriber are returned to the caller unchanged; nothing in the scoring
// path recovers from them.
//
// Implementors must be safe for concurrent use.
package stt

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ErrEmptyAudio is returned when the audio file has no content.
var ErrEmptyAudio = errors.New("stt: empty audio file")

// ErrNotConfigured is returned by [Unavailable] and by constructors missing
// required credentials.
var ErrNotConfigured = errors.New("stt: provider not configured")

// Transcriber converts a recorded audio file into text.
type Transcriber interface {
	// Transcribe reads the audio at audioPath and returns its transcription.
	// Network, authentication and format problems are reported as errors.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Func adapts an ordinary function to the Transcriber interface.
type Func func(ctx context.Context, audioPath string) (string, error)

// Transcribe calls f(ctx, audioPath).
func (f Func) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return f(ctx, audioPath)
}

// Unavailable is a Transcriber that always fails fast. It stands in for a
// backend that is not configured.
type Unavailable struct {
	Name string
}

// Transcribe always returns an error naming the missing backend.
func (u Unavailable) Transcribe(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: %q", ErrNotConfigured, u.Name)
}

var _ Transcriber = Unavailable{}

var audioMIME = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".oga":  "audio/ogg",
	".webm": "audio/webm",
	".flac": "audio/flac",
	".aac":  "audio/aac",
}

// MIMEType guesses the audio MIME type from the file extension. Unknown
// extensions yield "application/octet-stream".
func MIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if m, ok := audioMIME[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	return "application/octet-stream"
}
