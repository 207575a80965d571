package memory

import (
	"context"

	"github.com/pkg/errors"
)

// ImportanceEngine scores a single message by blending the local heuristic
// with the remote semantic judgment.
type ImportanceEngine struct {
	repo   Repository
	bridge Bridge
	model  string
}

func NewImportanceEngine(repo Repository, bridge Bridge, model string) *ImportanceEngine {
	return &ImportanceEngine{repo: repo, bridge: bridge, model: model}
}

// Score rates the message. Returns store.ErrNotFound when the message does
// not exist and ErrScoringUnavailable when the remote call fails; remote
// failures are never downgraded to a heuristic-only result.
func (e *ImportanceEngine) Score(ctx context.Context, messageID string) (float64, error) {
	message, err := e.repo.FindMessage(ctx, messageID)
	if err != nil {
		return 0, err
	}

	heuristic := HeuristicScore(message.Content)
	remote, err := e.bridge.ScoreImportance(ctx, message.Content, "", e.model)
	if err != nil {
		return 0, errors.Wrap(ErrScoringUnavailable, err.Error())
	}
	return BlendImportance(heuristic, remote), nil
}
