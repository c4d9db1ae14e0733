package scoring

import "errors"

// Failure classes of the qualitative scorer. [AIScorer.Score] recovers from
// all of them; they surface only in logs, metrics and tests.
var (
	// ErrAIUnavailable means no chat backend is configured for the provider.
	ErrAIUnavailable = errors.New("scoring: ai provider unavailable")

	// ErrAIResponseMalformed means the model output is not the JSON object
	// the prompt asks for.
	ErrAIResponseMalformed = errors.New("scoring: malformed ai response")

	// ErrAITransport covers every other failure of the chat call.
	ErrAITransport = errors.New("scoring: ai transport error")
)

// Fallback reasons reported in logs and the fallback counter.
const (
	ReasonUnavailable = "unavailable"
	ReasonTransport   = "transport"
	ReasonMalformed   = "malformed"
)

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrAIUnavailable):
		return ReasonUnavailable
	case errors.Is(err, ErrAIResponseMalformed):
		return ReasonMalformed
	default:
		return ReasonTransport
	}
}
