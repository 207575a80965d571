package store

// Summary levels for hierarchical summarization.
const (
	SummaryLevelDaily   = "daily"
	SummaryLevelWeekly  = "weekly"
	SummaryLevelMonthly = "monthly"
)

// Summary represents a stored hierarchical summary of a conversation.
type Summary struct {
	ID             string // UUID
	ConversationID string
	Level          string // daily, weekly, monthly
	SummaryText    string
	TokenCount     int32
	GeneratedTs    int64
}

// FindSummary specifies the conditions for finding summaries.
type FindSummary struct {
	ConversationID *string
	Level          *string
	GeneratedAfter *int64
	Limit          int
}
