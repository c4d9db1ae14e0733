package resilience

import (
	"context"
	"errors"

	"github.com/MrWong99/pronuncia/pkg/provider/stt"
)

// Transcriber is an [stt.Transcriber] that fails over across several
// speech-to-text backends. [stt.ErrEmptyAudio] is never retried elsewhere.
type Transcriber struct {
	group *Group[stt.Transcriber]
}

var _ stt.Transcriber = (*Transcriber)(nil)

// NewTranscriber returns a Transcriber whose first choice is primary.
func NewTranscriber(primaryName string, primary stt.Transcriber, cfg GroupConfig) *Transcriber {
	if cfg.Permanent == nil {
		cfg.Permanent = func(err error) bool { return errors.Is(err, stt.ErrEmptyAudio) }
	}
	return &Transcriber{group: NewGroup(primaryName, primary, cfg)}
}

// AddFallback appends a backend tried after all earlier ones.
func (t *Transcriber) AddFallback(name string, tr stt.Transcriber) { t.group.Add(name, tr) }

// States reports the breaker state of every backend.
func (t *Transcriber) States() map[string]State { return t.group.States() }

// Transcribe runs the first healthy backend on audioPath.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return Do(ctx, t.group, func(_ string, tr stt.Transcriber) (string, error) {
		return tr.Transcribe(ctx, audioPath)
	})
}
