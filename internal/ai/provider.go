package ai

import (
	"context"

	"habbit_backend/internal/models"
)

// CorrectionResult is the buffered output of the correction engine.
type CorrectionResult struct {
	CorrectedText string
	Changes       []models.TextChange
	TokensUsed    int
}

// StreamChunk is one element of a streaming correction. A non-nil Err is
// terminal: the stream failed mid-way and no further chunks follow.
type StreamChunk struct {
	Content string
	Err     error
}

// Provider is the correction capability. Implementations do not retry;
// failures propagate to the orchestrator.
type Provider interface {
	// CorrectText runs one buffered correction.
	CorrectText(ctx context.Context, text, language, style string) (*CorrectionResult, error)

	// CorrectTextStream produces a finite, non-restartable sequence of text
	// fragments. The channel is closed when the engine's output ends or ctx
	// is cancelled.
	CorrectTextStream(ctx context.Context, text, language, style string) (<-chan StreamChunk, error)
}
