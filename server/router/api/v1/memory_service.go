package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/mnemos/ai/memory"
	"github.com/hrygo/mnemos/store"
)

// Defaults for pruning suggestion queries.
const (
	defaultPruneThresholdDays  = 30
	defaultImportanceThreshold = 5
	defaultAutoLabelConfidence = 0.8
	maxPruneThresholdDays      = 3650
)

type assembleContextRequest struct {
	Query           string   `json:"query"`
	PreferredLabels []string `json:"preferred_labels"`
	TokenBudget     int      `json:"token_budget"`
	ExcludedFolders []string `json:"excluded_folders"`
}

type messageResponse struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Role           string         `json:"role"`
	Content        string         `json:"content"`
	Timestamp      time.Time      `json:"timestamp"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type assembleContextResponse struct {
	Messages []*messageResponse `json:"messages"`
}

func (s *APIV1Service) AssembleContext(c echo.Context) error {
	request := assembleContextRequest{}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	messages, err := s.Orchestrator.AssembleContext(c.Request().Context(), &memory.AssembleRequest{
		Query:           request.Query,
		PreferredLabels: request.PreferredLabels,
		TokenBudget:     request.TokenBudget,
		ExcludedFolders: request.ExcludedFolders,
	})
	if err != nil {
		return toHTTPError(err)
	}

	response := assembleContextResponse{Messages: make([]*messageResponse, 0, len(messages))}
	for _, message := range messages {
		response.Messages = append(response.Messages, convertMessage(message))
	}
	return c.JSON(http.StatusOK, response)
}

type scoreImportanceRequest struct {
	MessageID string `json:"message_id"`
}

type scoreImportanceResponse struct {
	MessageID string  `json:"message_id"`
	Score     float64 `json:"score"`
}

func (s *APIV1Service) ScoreImportance(c echo.Context) error {
	request := scoreImportanceRequest{}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.MessageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message_id is required")
	}

	score, err := s.Orchestrator.ScoreMessageImportance(c.Request().Context(), request.MessageID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, scoreImportanceResponse{MessageID: request.MessageID, Score: score})
}

func (s *APIV1Service) SuggestPruning(c echo.Context) error {
	thresholdDays, err := queryInt(c, "threshold_days", defaultPruneThresholdDays)
	if err != nil || thresholdDays <= 0 || thresholdDays > maxPruneThresholdDays {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid threshold_days")
	}
	importanceThreshold, err := queryInt(c, "importance_threshold", defaultImportanceThreshold)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid importance_threshold")
	}

	suggestions, err := s.Orchestrator.SuggestPruning(c.Request().Context(), thresholdDays, int32(importanceThreshold))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *APIV1Service) SuggestLabels(c echo.Context) error {
	suggestions, err := s.Orchestrator.SuggestLabels(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"suggestions": suggestions})
}

type autoLabelRequest struct {
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

func (s *APIV1Service) AutoLabel(c echo.Context) error {
	request := autoLabelRequest{ConfidenceThreshold: defaultAutoLabelConfidence}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	label, err := s.Orchestrator.AutoLabel(c.Request().Context(), c.Param("id"), request.ConfidenceThreshold)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"label": label, "applied": label != ""})
}

type createSummaryRequest struct {
	Level string `json:"level"`
}

func (s *APIV1Service) CreateSummary(c echo.Context) error {
	request := createSummaryRequest{Level: store.SummaryLevelDaily}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	summary, err := s.Orchestrator.SummarizeConversation(c.Request().Context(), c.Param("id"), request.Level)
	if err != nil {
		return toHTTPError(err)
	}
	if summary == nil {
		return c.JSON(http.StatusOK, map[string]any{"summary": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"summary": summary})
}

func (s *APIV1Service) ListSummaries(c echo.Context) error {
	conversationID := c.Param("id")
	find := &store.FindSummary{ConversationID: &conversationID}
	if level := c.QueryParam("level"); level != "" {
		find.Level = &level
	}

	summaries, err := s.Store.ListSummaries(c.Request().Context(), find)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"summaries": summaries})
}

func convertMessage(message *store.Message) *messageResponse {
	return &messageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Role:           message.Role,
		Content:        message.Content,
		Timestamp:      message.Timestamp,
		Metadata:       message.Metadata,
	}
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
