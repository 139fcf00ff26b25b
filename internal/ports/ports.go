package ports

import (
	"context"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region logger

// Logger records diagnostics. It matches *log.Logger's Printf.
type Logger interface {
	Printf(format string, args ...any)
}

// #endregion logger

// #region linguistic

// Linguistic is the language collaborator. LearnSentence is called off the
// simulation lock and may be slow; VocabularySize must be cheap.
type Linguistic interface {
	LearnSentence(ctx context.Context, text string, snapshot state.Snapshot) error
	VocabularySize() int
}

// #endregion linguistic

// #region persistence

// Persistence accepts snapshots and memories from the hosting application.
// The simulation core never calls it.
type Persistence interface {
	SaveSnapshot(ctx context.Context, snapshot state.Snapshot) error
	SaveMemories(ctx context.Context, memories []state.Memory) error
}

// #endregion persistence

// #region visual

// VisualSink renders frames. It is fed from the event bus.
type VisualSink interface {
	Frame(snapshot state.Snapshot)
}

// #endregion visual
