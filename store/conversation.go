package store

// ConversationStatus is the lifecycle status of a conversation.
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationArchived ConversationStatus = "archived"
)

// Conversation represents a stored conversation thread.
// Invariant: UpdatedTs >= CreatedTs.
type Conversation struct {
	ID              string // UUID
	UID             string // short public handle
	Label           string
	Folder          string // hierarchical path, e.g. /work/infra
	Status          ConversationStatus
	ImportanceScore int32 // 1-10
	WordCount       int32
	SessionCount    int32
	Pinned          bool
	CreatedTs       int64
	UpdatedTs       int64
}

// FindConversation specifies the conditions for finding conversations.
type FindConversation struct {
	ID            *string
	UID           *string
	Label         *string
	Folder        *string
	Status        *ConversationStatus
	Pinned        *bool
	UpdatedBefore *int64 // unix seconds, exclusive
	UpdatedAfter  *int64 // unix seconds, inclusive
	Limit         int
	Offset        int
}

// UpdateConversation specifies the fields to update on a conversation.
// Nil fields are left untouched. UpdatedTs is always bumped by the driver.
type UpdateConversation struct {
	ID              string
	Label           *string
	Folder          *string
	Status          *ConversationStatus
	ImportanceScore *int32
	WordCount       *int32
	SessionCount    *int32
	Pinned          *bool
}

// DeleteConversation specifies the conversation to delete.
type DeleteConversation struct {
	ID string
}

// ConversationStats aggregates conversation counts grouped by folder or label.
type ConversationStats struct {
	TotalConversations int      `json:"total_conversations"`
	AverageImportance  float64  `json:"average_importance"`
	GroupType          string   `json:"group_type"` // "folder" or "label"
	Groups             []string `json:"groups"`
}
