package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/mnemos/internal/profile"
	"github.com/hrygo/mnemos/store"
	"github.com/hrygo/mnemos/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	testProfile := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "mnemos_test.db"),
	}
	driver, err := sqlite.NewDB(testProfile)
	require.NoError(t, err)

	st := store.New(driver, testProfile)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createConversation(t *testing.T, st *store.Store, label, folder string, pinned bool, importance int32) *store.Conversation {
	t.Helper()
	now := time.Now().Unix()
	conversation, err := st.CreateConversation(context.Background(), &store.Conversation{
		ID:              uuid.NewString(),
		UID:             shortuuid.New(),
		Label:           label,
		Folder:          folder,
		Status:          store.ConversationActive,
		ImportanceScore: importance,
		SessionCount:    1,
		Pinned:          pinned,
		CreatedTs:       now,
		UpdatedTs:       now,
	})
	require.NoError(t, err)
	return conversation
}

func createMessage(t *testing.T, st *store.Store, conversationID, role, content string, ts time.Time) *store.Message {
	t.Helper()
	message, err := st.CreateMessage(context.Background(), &store.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      ts,
	})
	require.NoError(t, err)
	return message
}

func TestConversationCRUD(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	created := createConversation(t, st, "work:infra", "/work", false, 5)

	fetched, err := st.GetConversation(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "work:infra", fetched.Label)
	require.Equal(t, store.ConversationActive, fetched.Status)

	newLabel := "work:deploys"
	archived := store.ConversationArchived
	updated, err := st.UpdateConversation(ctx, &store.UpdateConversation{
		ID:     created.ID,
		Label:  &newLabel,
		Status: &archived,
	})
	require.NoError(t, err)
	require.Equal(t, "work:deploys", updated.Label)
	require.Equal(t, store.ConversationArchived, updated.Status)
	require.GreaterOrEqual(t, updated.UpdatedTs, created.UpdatedTs)

	require.NoError(t, st.DeleteConversation(ctx, &store.DeleteConversation{ID: created.ID}))
	_, err = st.GetConversation(ctx, created.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateConversationMissing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	label := "orphan"
	_, err := st.UpdateConversation(ctx, &store.UpdateConversation{ID: uuid.NewString(), Label: &label})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListConversationsByFolder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	createConversation(t, st, "infra", "/work/infra", false, 5)
	createConversation(t, st, "standup", "/work", false, 5)
	createConversation(t, st, "cooking", "/personal", false, 5)

	folder := "/work"
	conversations, err := st.ListConversations(ctx, &store.FindConversation{Folder: &folder})
	require.NoError(t, err)
	// Subfolders are included in a folder match.
	require.Len(t, conversations, 2)
}

func TestMessagesAndRecentOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	conversation := createConversation(t, st, "work", "/work", false, 5)
	base := time.Now().Add(-time.Hour)
	createMessage(t, st, conversation.ID, store.RoleUser, "first", base)
	createMessage(t, st, conversation.ID, store.RoleAssistant, "second", base.Add(time.Minute))
	createMessage(t, st, conversation.ID, store.RoleUser, "third", base.Add(2*time.Minute))

	count, err := st.CountMessages(ctx, conversation.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	recent, err := st.FindRecentMessages(ctx, conversation.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "third", recent[0].Content)
	require.Equal(t, "second", recent[1].Content)

	all, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Equal(t, "first", all[0].Content)
}

func TestMessageMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	conversation := createConversation(t, st, "work", "/work", false, 5)
	message := createMessage(t, st, conversation.ID, store.RoleUser, "content", time.Now())

	metadata := map[string]any{"citation": map[string]any{"label": "work", "folder": "/work"}}
	require.NoError(t, st.UpdateMessageMetadata(ctx, message.ID, metadata))

	fetched, err := st.GetMessage(ctx, message.ID)
	require.NoError(t, err)
	citation, ok := fetched.Metadata["citation"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "work", citation["label"])
}

func TestPinnedAndLabeledRecallQueries(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	pinned := createConversation(t, st, "ops", "/work", true, 8)
	labeled := createConversation(t, st, "work:infra", "/work", false, 6)
	other := createConversation(t, st, "cooking", "/personal", false, 5)

	createMessage(t, st, pinned.ID, store.RoleUser, "pinned note", time.Now())
	createMessage(t, st, labeled.ID, store.RoleUser, "infra note", time.Now())
	createMessage(t, st, other.ID, store.RoleUser, "recipe", time.Now())

	pinnedMessages, err := st.ListPinnedMessages(ctx)
	require.NoError(t, err)
	require.Len(t, pinnedMessages, 1)
	require.Equal(t, "ops", pinnedMessages[0].Label)
	require.True(t, pinnedMessages[0].Pinned)
	require.Equal(t, int32(8), pinnedMessages[0].Importance)

	labeledMessages, err := st.ListRecentLabeledMessages(ctx, []string{"work:infra"}, time.Now().AddDate(0, 0, -7).Unix())
	require.NoError(t, err)
	require.Len(t, labeledMessages, 1)
	require.Equal(t, "infra note", labeledMessages[0].Message.Content)

	empty, err := st.ListRecentLabeledMessages(ctx, nil, 0)
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestVectorSearchBruteForce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	work := createConversation(t, st, "work", "/work", false, 5)
	personal := createConversation(t, st, "personal", "/personal", false, 5)
	m1 := createMessage(t, st, work.ID, store.RoleUser, "deploy pipeline", time.Now())
	m2 := createMessage(t, st, personal.ID, store.RoleUser, "pasta recipe", time.Now())

	_, err := st.UpsertMessageEmbedding(ctx, &store.MessageEmbedding{
		MessageID: m1.ID, Model: "test-model", Embedding: []float32{1, 0, 0},
	})
	require.NoError(t, err)
	_, err = st.UpsertMessageEmbedding(ctx, &store.MessageEmbedding{
		MessageID: m2.ID, Model: "test-model", Embedding: []float32{0, 1, 0},
	})
	require.NoError(t, err)

	results, err := st.VectorSearch(ctx, &store.VectorSearchOptions{
		Vector: []float32{1, 0, 0},
		Model:  "test-model",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, m1.ID, results[0].MessageID)
	require.InDelta(t, 1.0, results[0].Score, 1e-6)
	require.Greater(t, results[0].Score, results[1].Score)

	filtered, err := st.VectorSearch(ctx, &store.VectorSearchOptions{
		Vector:          []float32{1, 0, 0},
		Model:           "test-model",
		ExcludedFolders: []string{"/personal"},
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, m1.ID, filtered[0].MessageID)
}

func TestFindMessagesWithoutEmbedding(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	conversation := createConversation(t, st, "work", "/work", false, 5)
	embedded := createMessage(t, st, conversation.ID, store.RoleUser, "embedded", time.Now())
	pending := createMessage(t, st, conversation.ID, store.RoleUser, "pending", time.Now())

	_, err := st.UpsertMessageEmbedding(ctx, &store.MessageEmbedding{
		MessageID: embedded.ID, Model: "test-model", Embedding: []float32{1},
	})
	require.NoError(t, err)

	missing, err := st.FindMessagesWithoutEmbedding(ctx, &store.FindMessagesWithoutEmbedding{Model: "test-model", Limit: 10})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	require.Equal(t, pending.ID, missing[0].ID)
}

func TestSummaries(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	conversation := createConversation(t, st, "work", "/work", false, 5)
	_, err := st.CreateSummary(ctx, &store.Summary{
		ID:             uuid.NewString(),
		ConversationID: conversation.ID,
		Level:          store.SummaryLevelDaily,
		SummaryText:    "daily recap",
		TokenCount:     3,
		GeneratedTs:    time.Now().Unix(),
	})
	require.NoError(t, err)

	level := store.SummaryLevelDaily
	summaries, err := st.ListSummaries(ctx, &store.FindSummary{ConversationID: &conversation.ID, Level: &level})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "daily recap", summaries[0].SummaryText)
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	createConversation(t, st, "infra", "/work", false, 8)
	createConversation(t, st, "standup", "/work", false, 4)
	createConversation(t, st, "cooking", "/personal", false, 6)

	stats, err := st.GetStats(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalConversations)
	require.Equal(t, "folder", stats.GroupType)
	require.InDelta(t, 6.0, stats.AverageImportance, 1e-9)
	require.ElementsMatch(t, []string{"/work", "/personal"}, stats.Groups)

	workStats, err := st.GetStats(ctx, "/work")
	require.NoError(t, err)
	require.Equal(t, 2, workStats.TotalConversations)
	require.Equal(t, "label", workStats.GroupType)
	require.ElementsMatch(t, []string{"infra", "standup"}, workStats.Groups)
}

func TestGetAllLabelsAndFolders(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	createConversation(t, st, "infra", "/work", false, 5)
	createConversation(t, st, "infra", "/work", false, 5)
	createConversation(t, st, "cooking", "/personal", false, 5)

	labels, err := st.GetAllLabels(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"cooking", "infra"}, labels)

	folders, err := st.GetAllFolders(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"/personal", "/work"}, folders)
}
