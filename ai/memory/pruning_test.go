package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/mnemos/store"
)

func staleConversation(id string, importance int32, daysOld int) *store.Conversation {
	ts := time.Now().AddDate(0, 0, -daysOld).Unix()
	return &store.Conversation{
		ID:              id,
		Label:           "old-topic",
		Status:          store.ConversationActive,
		ImportanceScore: importance,
		CreatedTs:       ts,
		UpdatedTs:       ts,
	}
}

func addConversationMessages(repo *fakeRepository, conversationID string, count int) {
	base := time.Now().AddDate(0, 0, -40)
	for i := 0; i < count; i++ {
		repo.addMessage(&store.Message{
			ID:             conversationID + "-m" + strings.Repeat("x", i+1),
			ConversationID: conversationID,
			Role:           store.RoleUser,
			Content:        "message content",
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestSuggestPruningRecommendation(t *testing.T) {
	tests := []struct {
		name         string
		importance   int32
		messageCount int
		want         string
	}{
		{"large and unimportant", 3, 30, RecommendArchive}, // 6000 tokens
		{"large but important", 7, 30, RecommendKeep},
		{"small and unimportant", 3, 10, RecommendKeep}, // 2000 tokens
		{"exactly at token threshold", 3, 25, RecommendKeep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			repo.stale = []*store.Conversation{staleConversation("c1", tt.importance, 40)}
			addConversationMessages(repo, "c1", tt.messageCount)
			bridge := &fakeBridge{summary: "notes about the old topic"}

			engine := NewPruningEngine(repo, bridge, "")
			suggestions, err := engine.Suggest(context.Background(), 30, 5)
			require.NoError(t, err)
			require.Len(t, suggestions, 1)
			require.Equal(t, tt.want, suggestions[0].Recommendation)
			require.Equal(t, int64(tt.messageCount*200), suggestions[0].TokenEstimate)
		})
	}
}

func TestSuggestPruningThirtyOneDaysOld(t *testing.T) {
	repo := newFakeRepository()
	repo.stale = []*store.Conversation{staleConversation("c1", 3, 31)}
	addConversationMessages(repo, "c1", 3)
	bridge := &fakeBridge{summary: "short preview"}

	engine := NewPruningEngine(repo, bridge, "")
	suggestions, err := engine.Suggest(context.Background(), 30, 5)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Equal(t, "c1", suggestions[0].ConversationID)
	require.Equal(t, "short preview", suggestions[0].Preview)
}

func TestSuggestPruningFreshConversationExcluded(t *testing.T) {
	repo := newFakeRepository()
	repo.stale = []*store.Conversation{staleConversation("c1", 3, 10)}
	engine := NewPruningEngine(repo, &fakeBridge{}, "")

	suggestions, err := engine.Suggest(context.Background(), 30, 5)
	require.NoError(t, err)
	require.Empty(t, suggestions)
}

func TestSuggestPruningPreviewFailureAbortsRun(t *testing.T) {
	repo := newFakeRepository()
	repo.stale = []*store.Conversation{
		staleConversation("c1", 3, 40),
		staleConversation("c2", 3, 40),
	}
	addConversationMessages(repo, "c1", 5)
	addConversationMessages(repo, "c2", 5)
	bridge := &fakeBridge{summarizeErr: errors.New("bridge down")}

	engine := NewPruningEngine(repo, bridge, "")
	suggestions, err := engine.Suggest(context.Background(), 30, 5)
	require.Error(t, err)
	require.Nil(t, suggestions, "no partial suggestion list on failure")
}

func TestSuggestPruningEmptyConversationSkipsBridge(t *testing.T) {
	repo := newFakeRepository()
	repo.stale = []*store.Conversation{staleConversation("c1", 3, 40)}
	bridge := &fakeBridge{summarizeErr: errors.New("must not be called")}

	engine := NewPruningEngine(repo, bridge, "")
	suggestions, err := engine.Suggest(context.Background(), 30, 5)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Empty(t, suggestions[0].Preview)
	require.Zero(t, bridge.summarizeCalls)
}
