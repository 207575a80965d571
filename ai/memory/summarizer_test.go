package memory

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/mnemos/store"
)

func TestSummarizeDaily(t *testing.T) {
	repo := newFakeRepository()
	repo.addMessage(&store.Message{
		ID:             "m1",
		ConversationID: "c1",
		Role:           store.RoleUser,
		Content:        "talked about the migration plan",
		Timestamp:      time.Now(),
	})
	bridge := &fakeBridge{summary: "migration plan discussed"}

	summarizer := NewSummarizer(repo, bridge, "")
	summary, err := summarizer.Summarize(context.Background(), "c1", store.SummaryLevelDaily)
	require.NoError(t, err)
	require.NotNil(t, summary)
	require.Equal(t, "migration plan discussed", summary.SummaryText)
	require.Equal(t, store.SummaryLevelDaily, summary.Level)
	require.Len(t, repo.savedSummaries, 1)
}

func TestSummarizeWeeklyPrefersDailySummaries(t *testing.T) {
	repo := newFakeRepository()
	repo.summaries = []*store.Summary{{
		ID:             "s1",
		ConversationID: "c1",
		Level:          store.SummaryLevelDaily,
		SummaryText:    "daily recap",
		GeneratedTs:    time.Now().Unix(),
	}}
	bridge := &fakeBridge{summary: "weekly recap"}

	summarizer := NewSummarizer(repo, bridge, "")
	summary, err := summarizer.Summarize(context.Background(), "c1", store.SummaryLevelWeekly)
	require.NoError(t, err)
	require.NotNil(t, summary)
	require.Equal(t, "weekly recap", summary.SummaryText)
	require.Equal(t, 1, bridge.summarizeCalls)
}

func TestSummarizeWeeklyFallsBackToMessages(t *testing.T) {
	repo := newFakeRepository()
	repo.addMessage(&store.Message{
		ID:             "m1",
		ConversationID: "c1",
		Role:           store.RoleUser,
		Content:        "raw material",
		Timestamp:      time.Now(),
	})
	bridge := &fakeBridge{summary: "weekly from raw messages"}

	summarizer := NewSummarizer(repo, bridge, "")
	summary, err := summarizer.Summarize(context.Background(), "c1", store.SummaryLevelWeekly)
	require.NoError(t, err)
	require.NotNil(t, summary)
	require.Equal(t, "weekly from raw messages", summary.SummaryText)
}

func TestSummarizeNothingToSummarize(t *testing.T) {
	summarizer := NewSummarizer(newFakeRepository(), &fakeBridge{}, "")
	summary, err := summarizer.Summarize(context.Background(), "c1", store.SummaryLevelMonthly)
	require.NoError(t, err)
	require.Nil(t, summary)
}

func TestSummarizeUnsupportedLevel(t *testing.T) {
	summarizer := NewSummarizer(newFakeRepository(), &fakeBridge{}, "")
	_, err := summarizer.Summarize(context.Background(), "c1", "hourly")
	require.Error(t, err)
}

func TestSummarizePersistFailureNonFatal(t *testing.T) {
	repo := newFakeRepository()
	repo.saveSummaryErr = errors.New("disk full")
	repo.addMessage(&store.Message{
		ID:             "m1",
		ConversationID: "c1",
		Role:           store.RoleUser,
		Content:        "content",
		Timestamp:      time.Now(),
	})
	bridge := &fakeBridge{summary: "still returned"}

	summarizer := NewSummarizer(repo, bridge, "")
	summary, err := summarizer.Summarize(context.Background(), "c1", store.SummaryLevelDaily)
	require.NoError(t, err)
	require.NotNil(t, summary)
	require.Equal(t, "still returned", summary.SummaryText)
}
