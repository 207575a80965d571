package store

import "time"

// Message roles. System messages participate in retrieval like any other.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// MetadataKeyCitation is the metadata key written by context enhancement.
// Writing it is idempotent: re-enhancing overwrites the same key.
const MetadataKeyCitation = "citation"

// Message represents a single stored conversation message.
type Message struct {
	ID             string // UUID
	ConversationID string
	Role           string
	Content        string
	Timestamp      time.Time
	EmbeddingID    *string        // reference into the embedding table, nil until ingested
	Metadata       map[string]any // JSON document, may be nil
}

// FindMessage specifies the conditions for finding messages.
type FindMessage struct {
	ID             *string
	ConversationID *string
	After          *time.Time
	Limit          int
}

// SearchResult is a semantic search hit joined with its conversation.
type SearchResult struct {
	MessageID      string
	ConversationID string
	Score          float64
	Content        string
	Label          string
	Folder         string
	Timestamp      time.Time
	Metadata       map[string]any
}

// LabeledMessage is a message joined with its conversation label, used by
// the recall sources that walk conversations rather than the vector index.
type LabeledMessage struct {
	Message    *Message
	Label      string
	Pinned     bool
	Importance int32
}
