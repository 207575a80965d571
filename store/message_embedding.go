package store

import (
	"context"

	"github.com/pkg/errors"
)

// MessageEmbedding represents the vector embedding of a message.
type MessageEmbedding struct {
	ID        int64
	MessageID string
	Model     string
	Embedding []float32
	CreatedTs int64
	UpdatedTs int64
}

// FindMessagesWithoutEmbedding is the find condition for messages that
// have not been ingested into the vector index yet.
type FindMessagesWithoutEmbedding struct {
	Model string // embedding model to check
	Limit int    // maximum number of messages to return
}

// VectorSearchOptions represents the options for message vector search.
type VectorSearchOptions struct {
	Vector          []float32
	Model           string
	Limit           int
	ExcludedFolders []string // conversations under these folders are skipped
}

// Validate validates the VectorSearchOptions.
func (o *VectorSearchOptions) Validate() error {
	if len(o.Vector) == 0 {
		return errors.New("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 10
	}
	if o.Limit > 1000 {
		return errors.Errorf("limit too large (max 1000): %d", o.Limit)
	}
	return nil
}

// UpsertMessageEmbedding inserts or updates a message embedding.
func (s *Store) UpsertMessageEmbedding(ctx context.Context, embedding *MessageEmbedding) (*MessageEmbedding, error) {
	return s.driver.UpsertMessageEmbedding(ctx, embedding)
}

// FindMessagesWithoutEmbedding finds messages lacking an embedding for the model.
func (s *Store) FindMessagesWithoutEmbedding(ctx context.Context, find *FindMessagesWithoutEmbedding) ([]*Message, error) {
	return s.driver.FindMessagesWithoutEmbedding(ctx, find)
}

// VectorSearch performs similarity search over message embeddings.
// Results are ordered by descending similarity.
func (s *Store) VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*SearchResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.VectorSearch(ctx, opts)
}
