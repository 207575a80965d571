// Package v1 implements the REST API over the store and the memory
// orchestrator.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/ai/llmbridge"
	"github.com/hrygo/mnemos/ai/memory"
	"github.com/hrygo/mnemos/ai/memory/ingest"
	"github.com/hrygo/mnemos/internal/profile"
	"github.com/hrygo/mnemos/store"
)

type APIV1Service struct {
	Profile      *profile.Profile
	Store        *store.Store
	Orchestrator *memory.Orchestrator
	Ingest       *ingest.Pipeline // nil when embeddings are disabled
}

func NewAPIV1Service(profile *profile.Profile, st *store.Store, orchestrator *memory.Orchestrator, ingestPipeline *ingest.Pipeline) *APIV1Service {
	return &APIV1Service{
		Profile:      profile,
		Store:        st,
		Orchestrator: orchestrator,
		Ingest:       ingestPipeline,
	}
}

func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	group := e.Group("/api/v1")

	// Orchestrator entry points.
	group.POST("/memory/assemble", s.AssembleContext)
	group.POST("/memory/importance", s.ScoreImportance)
	group.GET("/memory/pruning", s.SuggestPruning)

	// Conversations.
	group.POST("/conversations", s.CreateConversation)
	group.GET("/conversations", s.ListConversations)
	group.GET("/conversations/stats", s.GetStats)
	group.GET("/conversations/:id", s.GetConversation)
	group.PATCH("/conversations/:id", s.UpdateConversation)
	group.DELETE("/conversations/:id", s.DeleteConversation)
	group.POST("/conversations/:id/labels/suggest", s.SuggestLabels)
	group.POST("/conversations/:id/labels/auto", s.AutoLabel)
	group.POST("/conversations/:id/summaries", s.CreateSummary)
	group.GET("/conversations/:id/summaries", s.ListSummaries)

	// Messages.
	group.POST("/conversations/:id/messages", s.CreateMessage)
	group.GET("/conversations/:id/messages", s.ListMessages)
}

// toHTTPError maps domain errors onto HTTP statuses. Remote judgment
// failures surface as 502 so callers can tell them apart from local faults.
func toHTTPError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if errors.Is(err, memory.ErrScoringUnavailable) {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	apiErr := &llmbridge.APIError{}
	if errors.As(err, &apiErr) {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
