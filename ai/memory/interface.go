// Package memory implements the memory orchestrator: a four-stage retrieval
// pipeline (recall, rank, assemble, enhance) plus the importance, pruning and
// label engines built on the same scoring primitives.
package memory

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/store"
)

// ErrScoringUnavailable is returned by the importance engine when the remote
// judgment call fails.
var ErrScoringUnavailable = errors.New("scoring unavailable")

// CandidateSource tags where a candidate was recalled from.
type CandidateSource string

const (
	SourceSemantic CandidateSource = "semantic"
	SourcePinned   CandidateSource = "pinned"
	SourceLabeled  CandidateSource = "labeled"
)

// Candidate is a message under consideration for an assembled context.
// It exists only inside one pipeline run and is never persisted.
type Candidate struct {
	MessageID      string
	ConversationID string
	Score          float64 // similarity at recall, composite after ranking
	Timestamp      time.Time
	Label          string
	Pinned         bool
	Importance     float64
	Source         CandidateSource
}

// Repository is the storage capability consumed by the orchestrator engines.
// *StoreRepository is the production implementation; tests use a double.
type Repository interface {
	FindMessage(ctx context.Context, id string) (*store.Message, error)
	FindConversation(ctx context.Context, id string) (*store.Conversation, error)
	ConversationMessages(ctx context.Context, conversationID string) ([]*store.Message, error)
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]*store.Message, error)
	CountMessages(ctx context.Context, conversationID string) (int64, error)
	UpdateLabel(ctx context.Context, conversationID, label, folder string) error
	AllLabels(ctx context.Context) ([]string, error)
	StaleConversations(ctx context.Context, updatedBefore time.Time) ([]*store.Conversation, error)
	SetMessageMetadata(ctx context.Context, id string, metadata map[string]any) error

	SemanticSearch(ctx context.Context, query string, limit int, excludedFolders []string) ([]*store.SearchResult, error)
	PinnedMessages(ctx context.Context) ([]*store.LabeledMessage, error)
	RecentLabeledMessages(ctx context.Context, labels []string, updatedAfter time.Time) ([]*store.LabeledMessage, error)

	SaveSummary(ctx context.Context, summary *store.Summary) error
	Summaries(ctx context.Context, find *store.FindSummary) ([]*store.Summary, error)
}

// Bridge is the remote judgment capability. *llmbridge.Client is the
// production implementation.
type Bridge interface {
	Summarize(ctx context.Context, texts []string, level, model string, maxWords int) (string, error)
	ScoreImportance(ctx context.Context, text, contextHint, model string) (float64, error)
	SuggestLabels(ctx context.Context, content string, existing []string, model string) (string, error)
}
