package llmbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/summarize", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var request summarizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Equal(t, []string{"first", "second"}, request.Texts)
		require.Equal(t, "daily", request.Level)
		require.Equal(t, 200, request.MaxWords)

		json.NewEncoder(w).Encode(summarizeResponse{Summary: "condensed"})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	summary, err := client.Summarize(context.Background(), []string{"first", "second"}, "daily", "", 200)
	require.NoError(t, err)
	require.Equal(t, "condensed", summary)
}

func TestSummarizeEmptyInput(t *testing.T) {
	client := NewClient("http://localhost:0", time.Second)
	_, err := client.Summarize(context.Background(), nil, "daily", "", 100)
	require.Error(t, err)
}

func TestScoreImportance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/importance", r.URL.Path)
		json.NewEncoder(w).Encode(importanceResponse{Score: 0.7})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	score, err := client.ScoreImportance(context.Background(), "text", "", "")
	require.NoError(t, err)
	require.Equal(t, 0.7, score)
}

func TestScoreImportanceOutOfRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(importanceResponse{Score: 1.5})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.ScoreImportance(context.Background(), "text", "", "")
	require.Error(t, err)
}

func TestSuggestLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/labels", r.URL.Path)

		var request labelsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Equal(t, []string{"work:infra"}, request.ExistingLabels)

		json.NewEncoder(w).Encode(labelsResponse{Labels: "work:infra, ops"})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	labels, err := client.SuggestLabels(context.Background(), "content", []string{"work:infra"}, "")
	require.NoError(t, err)
	require.Equal(t, "work:infra, ops", labels)
}

func TestNonSuccessStatusSurfacesAsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Summarize(context.Background(), []string{"text"}, "daily", "", 50)
	require.Error(t, err)

	apiErr := &APIError{}
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "model overloaded")
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	require.NoError(t, client.HealthCheck(context.Background()))
}
