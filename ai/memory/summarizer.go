package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/store"
)

// Word caps per summary level. Higher levels condense more material and get
// a larger budget.
var summaryLevelMaxWords = map[string]int{
	store.SummaryLevelDaily:   200,
	store.SummaryLevelWeekly:  500,
	store.SummaryLevelMonthly: 1000,
}

// summarySourceMessages caps how many recent messages feed a daily summary.
const summarySourceMessages = 50

// Summarizer builds hierarchical conversation summaries: daily summaries
// condense raw messages, weekly summaries condense dailies, monthly
// summaries condense weeklies. Each level falls back to the level below when
// no higher-level material exists yet.
type Summarizer struct {
	repo   Repository
	bridge Bridge
	model  string
}

func NewSummarizer(repo Repository, bridge Bridge, model string) *Summarizer {
	return &Summarizer{repo: repo, bridge: bridge, model: model}
}

// Summarize generates and persists a summary of the conversation at the
// given level. Returns nil without error when there is nothing to summarize.
// Persistence failure is logged but does not fail the call; the generated
// summary is still returned.
func (s *Summarizer) Summarize(ctx context.Context, conversationID, level string) (*store.Summary, error) {
	maxWords, ok := summaryLevelMaxWords[level]
	if !ok {
		return nil, errors.Errorf("unsupported summary level: %s", level)
	}

	texts, err := s.sourceTexts(ctx, conversationID, level)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	text, err := s.bridge.Summarize(ctx, texts, level, s.model, maxWords)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to summarize at level %s", level)
	}

	summary := &store.Summary{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Level:          level,
		SummaryText:    text,
		TokenCount:     int32(len(text) / charsPerToken),
		GeneratedTs:    time.Now().Unix(),
	}
	if err := s.repo.SaveSummary(ctx, summary); err != nil {
		slog.Warn("failed to persist summary", "conversation", conversationID, "level", level, "err", err)
	}
	return summary, nil
}

func (s *Summarizer) sourceTexts(ctx context.Context, conversationID, level string) ([]string, error) {
	switch level {
	case store.SummaryLevelDaily:
		return s.messageTexts(ctx, conversationID)
	case store.SummaryLevelWeekly:
		texts, err := s.summaryTexts(ctx, conversationID, store.SummaryLevelDaily, 7)
		if err != nil || len(texts) > 0 {
			return texts, err
		}
		return s.messageTexts(ctx, conversationID)
	case store.SummaryLevelMonthly:
		texts, err := s.summaryTexts(ctx, conversationID, store.SummaryLevelWeekly, 30)
		if err != nil || len(texts) > 0 {
			return texts, err
		}
		texts, err = s.summaryTexts(ctx, conversationID, store.SummaryLevelDaily, 30)
		if err != nil || len(texts) > 0 {
			return texts, err
		}
		return s.messageTexts(ctx, conversationID)
	}
	return nil, nil
}

func (s *Summarizer) messageTexts(ctx context.Context, conversationID string) ([]string, error) {
	messages, err := s.repo.RecentMessages(ctx, conversationID, summarySourceMessages)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load messages for summary")
	}
	texts := make([]string, 0, len(messages))
	for _, message := range messages {
		texts = append(texts, message.Role+": "+message.Content)
	}
	return texts, nil
}

func (s *Summarizer) summaryTexts(ctx context.Context, conversationID, level string, windowDays int) ([]string, error) {
	after := time.Now().AddDate(0, 0, -windowDays).Unix()
	summaries, err := s.repo.Summaries(ctx, &store.FindSummary{
		ConversationID: &conversationID,
		Level:          &level,
		GeneratedAfter: &after,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load summaries")
	}
	texts := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		texts = append(texts, summary.SummaryText)
	}
	return texts, nil
}
