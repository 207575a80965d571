package memory

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const (
	// pruneTokensPerMessage is a flat per-message token estimate. Coarse on
	// purpose; pruning decisions do not need tokenizer precision.
	pruneTokensPerMessage = 200
	pruneTokenThreshold   = 5000
	prunePreviewMessages  = 5
	prunePreviewChars     = 100
	prunePreviewMaxWords  = 50
)

// Pruning recommendations.
const (
	RecommendArchive = "archive"
	RecommendKeep    = "keep"
)

// PruningSuggestion is a computed archive/keep recommendation for one stale
// conversation. Never persisted.
type PruningSuggestion struct {
	ConversationID string    `json:"conversation_id"`
	Label          string    `json:"label"`
	LastActive     time.Time `json:"last_active"`
	MessageCount   int64     `json:"message_count"`
	TokenEstimate  int64     `json:"token_estimate"`
	Importance     int32     `json:"importance"`
	Preview        string    `json:"preview"`
	Recommendation string    `json:"recommendation"`
}

// PruningEngine surveys stale conversations and recommends what to archive.
type PruningEngine struct {
	repo   Repository
	bridge Bridge
	model  string
}

func NewPruningEngine(repo Repository, bridge Bridge, model string) *PruningEngine {
	return &PruningEngine{repo: repo, bridge: bridge, model: model}
}

// Suggest surveys active conversations untouched for more than thresholdDays
// and emits a recommendation per conversation. A conversation is an archive
// candidate iff its token estimate exceeds 5000 and its importance is below
// importanceThreshold. Any preview-summary failure fails the whole run; no
// partial suggestion list is returned.
func (e *PruningEngine) Suggest(ctx context.Context, thresholdDays int, importanceThreshold int32) ([]*PruningSuggestion, error) {
	cutoff := time.Now().AddDate(0, 0, -thresholdDays)
	stale, err := e.repo.StaleConversations(ctx, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stale conversations")
	}

	suggestions := []*PruningSuggestion{}
	for _, conversation := range stale {
		count, err := e.repo.CountMessages(ctx, conversation.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to count messages")
		}
		tokenEstimate := count * pruneTokensPerMessage

		recommendation := RecommendKeep
		if tokenEstimate > pruneTokenThreshold && conversation.ImportanceScore < importanceThreshold {
			recommendation = RecommendArchive
		}

		preview, err := e.preview(ctx, conversation.ID)
		if err != nil {
			return nil, err
		}

		suggestions = append(suggestions, &PruningSuggestion{
			ConversationID: conversation.ID,
			Label:          conversation.Label,
			LastActive:     time.Unix(conversation.UpdatedTs, 0),
			MessageCount:   count,
			TokenEstimate:  tokenEstimate,
			Importance:     conversation.ImportanceScore,
			Preview:        preview,
			Recommendation: recommendation,
		})
	}
	return suggestions, nil
}

// preview summarizes the newest messages as "what would be lost if this
// conversation were archived".
func (e *PruningEngine) preview(ctx context.Context, conversationID string) (string, error) {
	recent, err := e.repo.RecentMessages(ctx, conversationID, prunePreviewMessages)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch recent messages")
	}
	if len(recent) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(recent))
	for _, message := range recent {
		texts = append(texts, truncateRunes(message.Content, prunePreviewChars))
	}

	summary, err := e.bridge.Summarize(ctx, texts, "preview", e.model, prunePreviewMaxWords)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate pruning preview")
	}
	return summary, nil
}
