package memory

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

const (
	labelContentLimit  = 2000
	labelSuggestionCap = 5

	confidenceExisting = 0.9
	confidenceNew      = 0.6
)

// LabelSuggestion is one proposed label for a conversation.
type LabelSuggestion struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	IsExisting bool    `json:"is_existing"`
	Reason     string  `json:"reason"`
}

// LabelEngine suggests topical labels using conversation content and the
// existing label vocabulary.
type LabelEngine struct {
	repo   Repository
	bridge Bridge
	model  string
}

func NewLabelEngine(repo Repository, bridge Bridge, model string) *LabelEngine {
	return &LabelEngine{repo: repo, bridge: bridge, model: model}
}

// Suggest asks the remote service for label candidates. Labels already in
// the vocabulary get confidence 0.9, new ones 0.6. A conversation without
// messages yields no suggestions; an unknown conversation is NotFound.
func (e *LabelEngine) Suggest(ctx context.Context, conversationID string) ([]*LabelSuggestion, error) {
	if _, err := e.repo.FindConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	messages, err := e.repo.ConversationMessages(ctx, conversationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load conversation messages")
	}
	if len(messages) == 0 {
		return []*LabelSuggestion{}, nil
	}

	lines := make([]string, 0, len(messages))
	for _, message := range messages {
		lines = append(lines, message.Role+": "+message.Content)
	}
	content := truncateRunes(strings.Join(lines, "\n"), labelContentLimit)

	vocabulary, err := e.repo.AllLabels(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load label vocabulary")
	}

	raw, err := e.bridge.SuggestLabels(ctx, content, vocabulary, e.model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to suggest labels")
	}

	existing := map[string]bool{}
	for _, label := range vocabulary {
		existing[label] = true
	}

	suggestions := []*LabelSuggestion{}
	for _, part := range strings.Split(raw, ",") {
		label := strings.TrimSpace(part)
		if label == "" {
			continue
		}
		suggestion := &LabelSuggestion{
			Label:      label,
			Confidence: confidenceNew,
			Reason:     "new label",
		}
		if existing[label] {
			suggestion.Confidence = confidenceExisting
			suggestion.IsExisting = true
			suggestion.Reason = "already in vocabulary"
		}
		suggestions = append(suggestions, suggestion)
		if len(suggestions) >= labelSuggestionCap {
			break
		}
	}
	return suggestions, nil
}

// AutoLabel applies the first suggestion meeting the confidence threshold
// and returns it. An empty label with a nil error means nothing qualified.
func (e *LabelEngine) AutoLabel(ctx context.Context, conversationID string, confidenceThreshold float64) (string, error) {
	suggestions, err := e.Suggest(ctx, conversationID)
	if err != nil {
		return "", err
	}

	for _, suggestion := range suggestions {
		if suggestion.Confidence < confidenceThreshold {
			continue
		}
		folder := inferFolder(suggestion.Label)
		if err := e.repo.UpdateLabel(ctx, conversationID, suggestion.Label, folder); err != nil {
			return "", errors.Wrap(err, "failed to apply label")
		}
		return suggestion.Label, nil
	}
	return "", nil
}

// inferFolder places namespaced labels (work:infra) under /work and
// everything else under /personal.
func inferFolder(label string) string {
	if strings.Contains(label, ":") {
		return "/work"
	}
	return "/personal"
}

// truncateRunes cuts s to at most max runes.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
