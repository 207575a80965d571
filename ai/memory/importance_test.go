package memory

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/mnemos/store"
)

func TestImportanceScoreBlend(t *testing.T) {
	repo := newFakeRepository()
	repo.addMessage(&store.Message{ID: "m1", Content: "What is the urgent issue here?", Timestamp: time.Now()})
	bridge := &fakeBridge{score: 0.7}

	engine := NewImportanceEngine(repo, bridge, "")
	score, err := engine.Score(context.Background(), "m1")
	require.NoError(t, err)
	// heuristic 6.5 (base 5 + ends-with-? 0.5 + "urgent" 1.0), blended with
	// remote 0.7: 6.5*0.3 + 0.7*0.7 = 2.44.
	require.InDelta(t, 2.44, score, 1e-9)
}

func TestImportanceScoreMessageNotFound(t *testing.T) {
	engine := NewImportanceEngine(newFakeRepository(), &fakeBridge{score: 0.5}, "")
	_, err := engine.Score(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestImportanceScoreRemoteFailure(t *testing.T) {
	repo := newFakeRepository()
	repo.addMessage(&store.Message{ID: "m1", Content: "hello", Timestamp: time.Now()})
	bridge := &fakeBridge{scoreErr: errors.New("bridge down")}

	engine := NewImportanceEngine(repo, bridge, "")
	_, err := engine.Score(context.Background(), "m1")
	require.ErrorIs(t, err, ErrScoringUnavailable)
}
