package memory

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/store"
)

const (
	// recallSemanticLimit caps vector search hits per assemble call.
	recallSemanticLimit = 200
	// recentLabeledWindow bounds the recently-labeled recall source.
	recentLabeledWindow = 7 * 24 * time.Hour
	// charsPerToken is the coarse character-to-token approximation.
	charsPerToken = 4
)

// AssembleRequest is the input to one context assembly run.
type AssembleRequest struct {
	Query           string
	PreferredLabels []string
	TokenBudget     int
	ExcludedFolders []string
}

// ContextAssembler runs the recall, rank, assemble, enhance pipeline.
type ContextAssembler struct {
	repo Repository
}

func NewContextAssembler(repo Repository) *ContextAssembler {
	return &ContextAssembler{repo: repo}
}

// Assemble retrieves the most relevant stored messages for the query, fitted
// under the token budget. A budget of zero or less yields an empty list.
func (a *ContextAssembler) Assemble(ctx context.Context, request *AssembleRequest) ([]*store.Message, error) {
	if request.TokenBudget <= 0 {
		return []*store.Message{}, nil
	}

	candidates, err := a.recall(ctx, request)
	if err != nil {
		return nil, err
	}
	ranked := Rank(candidates, request.PreferredLabels, time.Now())

	messages, err := a.collect(ctx, ranked, request.TokenBudget)
	if err != nil {
		return nil, err
	}
	if err := a.enhance(ctx, messages); err != nil {
		return nil, err
	}

	slog.Debug("assembled context",
		"query_len", len(request.Query),
		"candidates", len(candidates),
		"included", len(messages))
	return messages, nil
}

// recall merges the three candidate sources. First-seen provenance wins when
// the same message is recalled twice. Empty sources contribute nothing and
// are never an error.
func (a *ContextAssembler) recall(ctx context.Context, request *AssembleRequest) ([]*Candidate, error) {
	seen := map[string]bool{}
	candidates := []*Candidate{}
	add := func(candidate *Candidate) {
		if seen[candidate.MessageID] {
			return
		}
		seen[candidate.MessageID] = true
		candidates = append(candidates, candidate)
	}

	hits, err := a.repo.SemanticSearch(ctx, request.Query, recallSemanticLimit, request.ExcludedFolders)
	if err != nil {
		return nil, errors.Wrap(err, "semantic recall failed")
	}
	for _, hit := range hits {
		add(&Candidate{
			MessageID:      hit.MessageID,
			ConversationID: hit.ConversationID,
			Score:          hit.Score,
			Timestamp:      hit.Timestamp,
			Label:          hit.Label,
			Importance:     importanceMidDefault,
			Source:         SourceSemantic,
		})
	}

	pinned, err := a.repo.PinnedMessages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "pinned recall failed")
	}
	for _, labeled := range pinned {
		add(candidateFromLabeled(labeled, SourcePinned))
	}

	if len(request.PreferredLabels) > 0 {
		recent, err := a.repo.RecentLabeledMessages(ctx, request.PreferredLabels, time.Now().Add(-recentLabeledWindow))
		if err != nil {
			return nil, errors.Wrap(err, "labeled recall failed")
		}
		for _, labeled := range recent {
			add(candidateFromLabeled(labeled, SourceLabeled))
		}
	}

	return candidates, nil
}

func candidateFromLabeled(labeled *store.LabeledMessage, source CandidateSource) *Candidate {
	return &Candidate{
		MessageID:      labeled.Message.ID,
		ConversationID: labeled.Message.ConversationID,
		Timestamp:      labeled.Message.Timestamp,
		Label:          labeled.Label,
		Pinned:         labeled.Pinned,
		Importance:     float64(labeled.Importance),
		Source:         source,
	}
}

// Rank assigns every candidate its composite score and orders the list
// descending. Equal scores are broken by message id ascending, which keeps
// the order deterministic across runs.
func Rank(candidates []*Candidate, preferredLabels []string, now time.Time) []*Candidate {
	preferred := map[string]bool{}
	for _, label := range preferredLabels {
		preferred[label] = true
	}

	for _, candidate := range candidates {
		recency := RecencyScore(candidate.Timestamp, now)
		candidate.Score = CompositeScore(candidate.Importance, recency, preferred[candidate.Label])
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].MessageID < candidates[j].MessageID
		}
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// collect walks the ranked list once and greedily fits messages under
// floor(budget * 0.85), reserving the rest for a system prompt. Candidates
// that no longer fit are skipped, not terminal: a later, cheaper candidate
// may still fit. Messages deleted since recall are skipped silently.
func (a *ContextAssembler) collect(ctx context.Context, ranked []*Candidate, budget int) ([]*store.Message, error) {
	target := budget * 85 / 100
	used := 0

	messages := []*store.Message{}
	for _, candidate := range ranked {
		if used >= target {
			break
		}
		message, err := a.repo.FindMessage(ctx, candidate.MessageID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, errors.Wrap(err, "failed to fetch candidate message")
		}
		cost := len(message.Content) / charsPerToken
		if used+cost > target {
			continue
		}
		messages = append(messages, message)
		used += cost
	}
	return messages, nil
}

// enhance injects a citation block into each message's metadata naming the
// source conversation. Re-running overwrites the same key, so enhancement is
// idempotent. A concurrently deleted conversation is not an error; the
// message passes through unmodified.
func (a *ContextAssembler) enhance(ctx context.Context, messages []*store.Message) error {
	for _, message := range messages {
		conversation, err := a.repo.FindConversation(ctx, message.ConversationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return errors.Wrap(err, "failed to fetch conversation for citation")
		}

		if message.Metadata == nil {
			message.Metadata = map[string]any{}
		}
		message.Metadata[store.MetadataKeyCitation] = map[string]any{
			"label":     conversation.Label,
			"folder":    conversation.Folder,
			"timestamp": message.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := a.repo.SetMessageMetadata(ctx, message.ID, message.Metadata); err != nil {
			return errors.Wrap(err, "failed to persist citation")
		}
	}
	return nil
}
