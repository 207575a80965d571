package memory

import (
	"context"

	"github.com/hrygo/mnemos/store"
)

// Orchestrator is the facade over the memory engines. It holds no state
// beyond shared references to its collaborators; every call is stateless.
type Orchestrator struct {
	assembler  *ContextAssembler
	importance *ImportanceEngine
	pruning    *PruningEngine
	labels     *LabelEngine
	summarizer *Summarizer
}

// NewOrchestrator wires the engines over one shared repository and bridge.
// model is the hint forwarded to the bridge on every remote call; empty
// lets the bridge pick its default.
func NewOrchestrator(repo Repository, bridge Bridge, model string) *Orchestrator {
	return &Orchestrator{
		assembler:  NewContextAssembler(repo),
		importance: NewImportanceEngine(repo, bridge, model),
		pruning:    NewPruningEngine(repo, bridge, model),
		labels:     NewLabelEngine(repo, bridge, model),
		summarizer: NewSummarizer(repo, bridge, model),
	}
}

// AssembleContext retrieves the most relevant stored messages for a query
// under the token budget.
func (o *Orchestrator) AssembleContext(ctx context.Context, request *AssembleRequest) ([]*store.Message, error) {
	return o.assembler.Assemble(ctx, request)
}

// ScoreMessageImportance rates one message by blending the local heuristic
// with the remote judgment.
func (o *Orchestrator) ScoreMessageImportance(ctx context.Context, messageID string) (float64, error) {
	return o.importance.Score(ctx, messageID)
}

// SuggestPruning surveys stale conversations and recommends what to archive.
func (o *Orchestrator) SuggestPruning(ctx context.Context, thresholdDays int, importanceThreshold int32) ([]*PruningSuggestion, error) {
	return o.pruning.Suggest(ctx, thresholdDays, importanceThreshold)
}

// SuggestLabels proposes topical labels for a conversation.
func (o *Orchestrator) SuggestLabels(ctx context.Context, conversationID string) ([]*LabelSuggestion, error) {
	return o.labels.Suggest(ctx, conversationID)
}

// AutoLabel applies the first label suggestion meeting the confidence
// threshold. Returns an empty label when none qualifies.
func (o *Orchestrator) AutoLabel(ctx context.Context, conversationID string, confidenceThreshold float64) (string, error) {
	return o.labels.AutoLabel(ctx, conversationID, confidenceThreshold)
}

// SummarizeConversation generates and persists a hierarchical summary.
func (o *Orchestrator) SummarizeConversation(ctx context.Context, conversationID, level string) (*store.Summary, error) {
	return o.summarizer.Summarize(ctx, conversationID, level)
}
