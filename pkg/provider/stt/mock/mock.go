// Package mock provides a test double for the stt.Transcriber interface.
//
// Example:
//
//	tr := &mock.Transcriber{Text: "o rato roeu a roupa"}
//	text, _ := tr.Transcribe(ctx, "/tmp/upload.wav")
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/pronuncia/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// AudioPath is the file path passed to Transcribe.
	AudioPath string
}

// Transcriber is a mock implementation of stt.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Text is returned by Transcribe when Err is nil.
	Text string

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records every invocation of Transcribe in order.
	Calls []TranscribeCall
}

// Transcribe records the call and returns Text, Err.
func (m *Transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, TranscribeCall{Ctx: ctx, AudioPath: audioPath})
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// CallCount returns the number of recorded Transcribe calls.
func (m *Transcriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Ensure Transcriber implements stt.Transcriber at compile time.
var _ stt.Transcriber = (*Transcriber)(nil)
