package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that interact with the underlying database.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error)
	DeleteConversation(ctx context.Context, delete *DeleteConversation) error
	GetAllLabels(ctx context.Context) ([]string, error)
	GetAllFolders(ctx context.Context) ([]string, error)

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)
	FindRecentMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)
	CountMessages(ctx context.Context, conversationID string) (int64, error)
	UpdateMessageMetadata(ctx context.Context, id string, metadata map[string]any) error

	// Recall source queries.
	ListPinnedMessages(ctx context.Context) ([]*LabeledMessage, error)
	ListRecentLabeledMessages(ctx context.Context, labels []string, updatedAfter int64) ([]*LabeledMessage, error)

	// Embedding model related methods.
	UpsertMessageEmbedding(ctx context.Context, embedding *MessageEmbedding) (*MessageEmbedding, error)
	FindMessagesWithoutEmbedding(ctx context.Context, find *FindMessagesWithoutEmbedding) ([]*Message, error)
	VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*SearchResult, error)

	// Summary model related methods.
	CreateSummary(ctx context.Context, create *Summary) (*Summary, error)
	ListSummaries(ctx context.Context, find *FindSummary) ([]*Summary, error)
}
