package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/store"
)

type createMessageRequest struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp *time.Time     `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

func (s *APIV1Service) CreateMessage(c echo.Context) error {
	request := createMessageRequest{}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Role != store.RoleUser && request.Role != store.RoleAssistant && request.Role != store.RoleSystem {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be user, assistant or system")
	}
	if request.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	ctx := c.Request().Context()
	conversationID := c.Param("id")
	conversation, err := s.Store.GetConversation(ctx, conversationID)
	if err != nil {
		return toHTTPError(err)
	}

	timestamp := time.Now()
	if request.Timestamp != nil {
		timestamp = *request.Timestamp
	}

	message, err := s.Store.CreateMessage(ctx, &store.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           request.Role,
		Content:        request.Content,
		Timestamp:      timestamp,
		Metadata:       request.Metadata,
	})
	if err != nil {
		return toHTTPError(err)
	}

	// Word count rides along on the conversation; bumping it also advances
	// updated_ts.
	wordCount := conversation.WordCount + int32(len(strings.Fields(request.Content)))
	if _, err := s.Store.UpdateConversation(ctx, &store.UpdateConversation{
		ID:        conversationID,
		WordCount: &wordCount,
	}); err != nil {
		return toHTTPError(errors.Wrap(err, "failed to update conversation counters"))
	}

	if s.Ingest != nil {
		s.Ingest.Enqueue(message.ID)
	}
	return c.JSON(http.StatusCreated, convertMessage(message))
}

func (s *APIV1Service) ListMessages(c echo.Context) error {
	conversationID := c.Param("id")
	if _, err := s.Store.GetConversation(c.Request().Context(), conversationID); err != nil {
		return toHTTPError(err)
	}

	find := &store.FindMessage{ConversationID: &conversationID}
	limit, err := queryInt(c, "limit", 0)
	if err != nil || limit < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	find.Limit = limit

	messages, err := s.Store.ListMessages(c.Request().Context(), find)
	if err != nil {
		return toHTTPError(err)
	}

	response := make([]*messageResponse, 0, len(messages))
	for _, message := range messages {
		response = append(response, convertMessage(message))
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": response})
}
