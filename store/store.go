// Package store provides database access to all raw objects.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/internal/profile"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

// GetConversation returns the conversation with the given id, or ErrNotFound.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, &FindConversation{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "conversation %s", id)
	}
	return list[0], nil
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	return s.driver.UpdateConversation(ctx, update)
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

// GetAllLabels returns the distinct label vocabulary across all conversations.
func (s *Store) GetAllLabels(ctx context.Context) ([]string, error) {
	return s.driver.GetAllLabels(ctx)
}

// GetAllFolders returns the distinct folders across all conversations.
func (s *Store) GetAllFolders(ctx context.Context) ([]string, error) {
	return s.driver.GetAllFolders(ctx)
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

// GetMessage returns the message with the given id, or ErrNotFound.
func (s *Store) GetMessage(ctx context.Context, id string) (*Message, error) {
	list, err := s.driver.ListMessages(ctx, &FindMessage{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "message %s", id)
	}
	return list[0], nil
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

// FindRecentMessages returns the most recent messages of a conversation,
// newest first.
func (s *Store) FindRecentMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error) {
	return s.driver.FindRecentMessages(ctx, conversationID, limit)
}

func (s *Store) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	return s.driver.CountMessages(ctx, conversationID)
}

func (s *Store) UpdateMessageMetadata(ctx context.Context, id string, metadata map[string]any) error {
	return s.driver.UpdateMessageMetadata(ctx, id, metadata)
}

// ListPinnedMessages returns messages of pinned conversations.
func (s *Store) ListPinnedMessages(ctx context.Context) ([]*LabeledMessage, error) {
	return s.driver.ListPinnedMessages(ctx)
}

// ListRecentLabeledMessages returns messages of conversations matching any of
// the labels and updated at or after updatedAfter.
func (s *Store) ListRecentLabeledMessages(ctx context.Context, labels []string, updatedAfter int64) ([]*LabeledMessage, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	return s.driver.ListRecentLabeledMessages(ctx, labels, updatedAfter)
}

func (s *Store) CreateSummary(ctx context.Context, create *Summary) (*Summary, error) {
	return s.driver.CreateSummary(ctx, create)
}

func (s *Store) ListSummaries(ctx context.Context, find *FindSummary) ([]*Summary, error) {
	return s.driver.ListSummaries(ctx, find)
}

// GetStats aggregates conversation statistics grouped by folder or label.
// When folder is non-empty, only conversations under that folder are counted
// and the grouping switches to labels within the folder.
func (s *Store) GetStats(ctx context.Context, folder string) (*ConversationStats, error) {
	find := &FindConversation{}
	groupType := "folder"
	if folder != "" {
		find.Folder = &folder
		groupType = "label"
	}

	convs, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}

	stats := &ConversationStats{
		TotalConversations: len(convs),
		GroupType:          groupType,
		Groups:             []string{},
	}

	seen := map[string]bool{}
	var importanceSum int64
	for _, conv := range convs {
		importanceSum += int64(conv.ImportanceScore)
		group := conv.Folder
		if groupType == "label" {
			group = conv.Label
		}
		if group != "" && !seen[group] {
			seen[group] = true
			stats.Groups = append(stats.Groups, group)
		}
	}
	if len(convs) > 0 {
		stats.AverageImportance = float64(importanceSum) / float64(len(convs))
	}

	return stats, nil
}
