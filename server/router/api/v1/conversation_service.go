package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/mnemos/store"
)

type createConversationRequest struct {
	Label           string `json:"label"`
	Folder          string `json:"folder"`
	ImportanceScore int32  `json:"importance_score"`
	Pinned          bool   `json:"pinned"`
}

func (s *APIV1Service) CreateConversation(c echo.Context) error {
	request := createConversationRequest{}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Folder == "" {
		request.Folder = "/"
	}
	if request.ImportanceScore == 0 {
		request.ImportanceScore = 5
	}
	if request.ImportanceScore < 1 || request.ImportanceScore > 10 {
		return echo.NewHTTPError(http.StatusBadRequest, "importance_score must be in [1, 10]")
	}

	now := time.Now().Unix()
	conversation, err := s.Store.CreateConversation(c.Request().Context(), &store.Conversation{
		ID:              uuid.NewString(),
		UID:             shortuuid.New(),
		Label:           request.Label,
		Folder:          request.Folder,
		Status:          store.ConversationActive,
		ImportanceScore: request.ImportanceScore,
		SessionCount:    1,
		Pinned:          request.Pinned,
		CreatedTs:       now,
		UpdatedTs:       now,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, conversation)
}

func (s *APIV1Service) ListConversations(c echo.Context) error {
	find := &store.FindConversation{}
	if label := c.QueryParam("label"); label != "" {
		find.Label = &label
	}
	if folder := c.QueryParam("folder"); folder != "" {
		find.Folder = &folder
	}
	if status := c.QueryParam("status"); status != "" {
		conversationStatus := store.ConversationStatus(status)
		if conversationStatus != store.ConversationActive && conversationStatus != store.ConversationArchived {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		find.Status = &conversationStatus
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil || limit < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	find.Limit = limit
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	find.Offset = offset

	conversations, err := s.Store.ListConversations(c.Request().Context(), find)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"conversations": conversations})
}

func (s *APIV1Service) GetConversation(c echo.Context) error {
	conversation, err := s.Store.GetConversation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, conversation)
}

type updateConversationRequest struct {
	Label           *string `json:"label"`
	Folder          *string `json:"folder"`
	Status          *string `json:"status"`
	ImportanceScore *int32  `json:"importance_score"`
	Pinned          *bool   `json:"pinned"`
}

func (s *APIV1Service) UpdateConversation(c echo.Context) error {
	request := updateConversationRequest{}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	update := &store.UpdateConversation{
		ID:              c.Param("id"),
		Label:           request.Label,
		Folder:          request.Folder,
		ImportanceScore: request.ImportanceScore,
		Pinned:          request.Pinned,
	}
	if request.Status != nil {
		status := store.ConversationStatus(*request.Status)
		if status != store.ConversationActive && status != store.ConversationArchived {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		update.Status = &status
	}
	if request.ImportanceScore != nil && (*request.ImportanceScore < 1 || *request.ImportanceScore > 10) {
		return echo.NewHTTPError(http.StatusBadRequest, "importance_score must be in [1, 10]")
	}

	conversation, err := s.Store.UpdateConversation(c.Request().Context(), update)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, conversation)
}

func (s *APIV1Service) DeleteConversation(c echo.Context) error {
	id := c.Param("id")
	if _, err := s.Store.GetConversation(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	if err := s.Store.DeleteConversation(c.Request().Context(), &store.DeleteConversation{ID: id}); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) GetStats(c echo.Context) error {
	stats, err := s.Store.GetStats(c.Request().Context(), c.QueryParam("folder"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
