package memory

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/store"
)

// fakeRepository is an in-memory Repository double.
type fakeRepository struct {
	messages      map[string]*store.Message
	conversations map[string]*store.Conversation
	searchResults []*store.SearchResult
	pinned        []*store.LabeledMessage
	labeled       []*store.LabeledMessage
	labels        []string
	stale         []*store.Conversation
	summaries     []*store.Summary

	savedSummaries []*store.Summary
	saveSummaryErr error
	appliedLabels  map[string][2]string
	metadataWrites map[string]int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		messages:       map[string]*store.Message{},
		conversations:  map[string]*store.Conversation{},
		appliedLabels:  map[string][2]string{},
		metadataWrites: map[string]int{},
	}
}

func (f *fakeRepository) addMessage(message *store.Message) {
	f.messages[message.ID] = message
}

func (f *fakeRepository) addConversation(conversation *store.Conversation) {
	f.conversations[conversation.ID] = conversation
}

func (f *fakeRepository) FindMessage(_ context.Context, id string) (*store.Message, error) {
	message, ok := f.messages[id]
	if !ok {
		return nil, errors.Wrapf(store.ErrNotFound, "message %s", id)
	}
	return message, nil
}

func (f *fakeRepository) FindConversation(_ context.Context, id string) (*store.Conversation, error) {
	conversation, ok := f.conversations[id]
	if !ok {
		return nil, errors.Wrapf(store.ErrNotFound, "conversation %s", id)
	}
	return conversation, nil
}

func (f *fakeRepository) ConversationMessages(_ context.Context, conversationID string) ([]*store.Message, error) {
	list := []*store.Message{}
	for _, message := range f.messages {
		if message.ConversationID == conversationID {
			list = append(list, message)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	return list, nil
}

func (f *fakeRepository) RecentMessages(ctx context.Context, conversationID string, limit int) ([]*store.Message, error) {
	list, _ := f.ConversationMessages(ctx, conversationID)
	sort.Slice(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (f *fakeRepository) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	list, _ := f.ConversationMessages(ctx, conversationID)
	return int64(len(list)), nil
}

func (f *fakeRepository) UpdateLabel(_ context.Context, conversationID, label, folder string) error {
	f.appliedLabels[conversationID] = [2]string{label, folder}
	return nil
}

func (f *fakeRepository) AllLabels(_ context.Context) ([]string, error) {
	return f.labels, nil
}

func (f *fakeRepository) StaleConversations(_ context.Context, updatedBefore time.Time) ([]*store.Conversation, error) {
	list := []*store.Conversation{}
	for _, conversation := range f.stale {
		if conversation.UpdatedTs < updatedBefore.Unix() {
			list = append(list, conversation)
		}
	}
	return list, nil
}

func (f *fakeRepository) SetMessageMetadata(_ context.Context, id string, metadata map[string]any) error {
	f.metadataWrites[id]++
	if message, ok := f.messages[id]; ok {
		message.Metadata = metadata
	}
	return nil
}

func (f *fakeRepository) SemanticSearch(_ context.Context, query string, limit int, _ []string) ([]*store.SearchResult, error) {
	if query == "" {
		return nil, nil
	}
	results := f.searchResults
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (f *fakeRepository) PinnedMessages(_ context.Context) ([]*store.LabeledMessage, error) {
	return f.pinned, nil
}

func (f *fakeRepository) RecentLabeledMessages(_ context.Context, _ []string, _ time.Time) ([]*store.LabeledMessage, error) {
	return f.labeled, nil
}

func (f *fakeRepository) SaveSummary(_ context.Context, summary *store.Summary) error {
	if f.saveSummaryErr != nil {
		return f.saveSummaryErr
	}
	f.savedSummaries = append(f.savedSummaries, summary)
	return nil
}

func (f *fakeRepository) Summaries(_ context.Context, find *store.FindSummary) ([]*store.Summary, error) {
	list := []*store.Summary{}
	for _, summary := range f.summaries {
		if find.ConversationID != nil && summary.ConversationID != *find.ConversationID {
			continue
		}
		if find.Level != nil && summary.Level != *find.Level {
			continue
		}
		if find.GeneratedAfter != nil && summary.GeneratedTs < *find.GeneratedAfter {
			continue
		}
		list = append(list, summary)
	}
	return list, nil
}

// fakeBridge is a canned-response Bridge double.
type fakeBridge struct {
	summary        string
	summarizeErr   error
	summarizeCalls int

	score    float64
	scoreErr error

	labels    string
	labelsErr error
}

func (f *fakeBridge) Summarize(_ context.Context, texts []string, _, _ string, _ int) (string, error) {
	f.summarizeCalls++
	if f.summarizeErr != nil {
		return "", f.summarizeErr
	}
	return f.summary, nil
}

func (f *fakeBridge) ScoreImportance(_ context.Context, _, _, _ string) (float64, error) {
	if f.scoreErr != nil {
		return 0, f.scoreErr
	}
	return f.score, nil
}

func (f *fakeBridge) SuggestLabels(_ context.Context, _ string, _ []string, _ string) (string, error) {
	if f.labelsErr != nil {
		return "", f.labelsErr
	}
	return f.labels, nil
}
