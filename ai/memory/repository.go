package memory

import (
	"context"
	"time"

	"github.com/hrygo/mnemos/ai/embedding"
	"github.com/hrygo/mnemos/store"
)

// StoreRepository adapts the store and the embedding provider to the
// Repository capability consumed by the engines.
type StoreRepository struct {
	store    *store.Store
	embedder *embedding.Provider
}

// NewStoreRepository creates the production repository. embedder may be nil,
// in which case semantic search returns no hits.
func NewStoreRepository(st *store.Store, embedder *embedding.Provider) *StoreRepository {
	return &StoreRepository{store: st, embedder: embedder}
}

func (r *StoreRepository) FindMessage(ctx context.Context, id string) (*store.Message, error) {
	return r.store.GetMessage(ctx, id)
}

func (r *StoreRepository) FindConversation(ctx context.Context, id string) (*store.Conversation, error) {
	return r.store.GetConversation(ctx, id)
}

func (r *StoreRepository) ConversationMessages(ctx context.Context, conversationID string) ([]*store.Message, error) {
	return r.store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversationID})
}

func (r *StoreRepository) RecentMessages(ctx context.Context, conversationID string, limit int) ([]*store.Message, error) {
	return r.store.FindRecentMessages(ctx, conversationID, limit)
}

func (r *StoreRepository) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	return r.store.CountMessages(ctx, conversationID)
}

func (r *StoreRepository) UpdateLabel(ctx context.Context, conversationID, label, folder string) error {
	update := &store.UpdateConversation{ID: conversationID, Label: &label}
	if folder != "" {
		update.Folder = &folder
	}
	_, err := r.store.UpdateConversation(ctx, update)
	return err
}

func (r *StoreRepository) AllLabels(ctx context.Context) ([]string, error) {
	return r.store.GetAllLabels(ctx)
}

func (r *StoreRepository) StaleConversations(ctx context.Context, updatedBefore time.Time) ([]*store.Conversation, error) {
	status := store.ConversationActive
	before := updatedBefore.Unix()
	return r.store.ListConversations(ctx, &store.FindConversation{
		Status:        &status,
		UpdatedBefore: &before,
	})
}

func (r *StoreRepository) SetMessageMetadata(ctx context.Context, id string, metadata map[string]any) error {
	return r.store.UpdateMessageMetadata(ctx, id, metadata)
}

// SemanticSearch embeds the query and runs vector search. Without an
// embedding provider it contributes nothing rather than failing.
func (r *StoreRepository) SemanticSearch(ctx context.Context, query string, limit int, excludedFolders []string) ([]*store.SearchResult, error) {
	if r.embedder == nil || query == "" {
		return nil, nil
	}
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.store.VectorSearch(ctx, &store.VectorSearchOptions{
		Vector:          vector,
		Model:           r.embedder.Model(),
		Limit:           limit,
		ExcludedFolders: excludedFolders,
	})
}

func (r *StoreRepository) PinnedMessages(ctx context.Context) ([]*store.LabeledMessage, error) {
	return r.store.ListPinnedMessages(ctx)
}

func (r *StoreRepository) RecentLabeledMessages(ctx context.Context, labels []string, updatedAfter time.Time) ([]*store.LabeledMessage, error) {
	return r.store.ListRecentLabeledMessages(ctx, labels, updatedAfter.Unix())
}

func (r *StoreRepository) SaveSummary(ctx context.Context, summary *store.Summary) error {
	_, err := r.store.CreateSummary(ctx, summary)
	return err
}

func (r *StoreRepository) Summaries(ctx context.Context, find *store.FindSummary) ([]*store.Summary, error) {
	return r.store.ListSummaries(ctx, find)
}
