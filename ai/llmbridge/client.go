// Package llmbridge is the HTTP client for the external LLM bridge service.
// The bridge wraps whatever model backend is configured (Ollama, OpenAI, ...)
// behind a small JSON API used for summarization and importance scoring.
package llmbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// APIError is returned when the bridge responds with a non-200 status.
// It carries the status code and raw body so callers can log the cause.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm bridge returned %d: %s", e.StatusCode, e.Body)
}

// Client calls the LLM bridge over HTTP. Requests are not retried; callers
// decide whether a failure aborts the operation.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a bridge client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type summarizeRequest struct {
	Texts    []string `json:"texts"`
	Level    string   `json:"level,omitempty"`
	Model    string   `json:"model,omitempty"`
	MaxWords int      `json:"max_words,omitempty"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// Summarize asks the bridge to condense texts into a single summary of at
// most maxWords words.
func (c *Client) Summarize(ctx context.Context, texts []string, level, model string, maxWords int) (string, error) {
	if len(texts) == 0 {
		return "", errors.New("no texts to summarize")
	}

	request := summarizeRequest{
		Texts:    texts,
		Level:    level,
		Model:    model,
		MaxWords: maxWords,
	}
	response := summarizeResponse{}
	if err := c.post(ctx, "/summarize", request, &response); err != nil {
		return "", err
	}
	return response.Summary, nil
}

type importanceRequest struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
	Model   string `json:"model,omitempty"`
}

type importanceResponse struct {
	Score float64 `json:"score"`
}

// ScoreImportance asks the bridge to rate the text. The returned score is in
// [0, 1] and the caller blends it with its own heuristic.
func (c *Client) ScoreImportance(ctx context.Context, text, contextHint, model string) (float64, error) {
	request := importanceRequest{
		Text:    text,
		Context: contextHint,
		Model:   model,
	}
	response := importanceResponse{}
	if err := c.post(ctx, "/importance", request, &response); err != nil {
		return 0, err
	}
	if response.Score < 0 || response.Score > 1 {
		return 0, errors.Errorf("bridge returned score out of range: %f", response.Score)
	}
	return response.Score, nil
}

type labelsRequest struct {
	Text           string   `json:"text"`
	ExistingLabels []string `json:"existing_labels,omitempty"`
	Model          string   `json:"model,omitempty"`
}

type labelsResponse struct {
	Labels string `json:"labels"`
}

// SuggestLabels asks the bridge for a comma-separated list of label
// candidates for the content, biased toward the existing vocabulary.
func (c *Client) SuggestLabels(ctx context.Context, content string, existing []string, model string) (string, error) {
	request := labelsRequest{
		Text:           content,
		ExistingLabels: existing,
		Model:          model,
	}
	response := labelsResponse{}
	if err := c.post(ctx, "/labels", request, &response); err != nil {
		return "", err
	}
	return response.Labels, nil
}

// HealthCheck reports whether the bridge is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to reach llm bridge")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, request, response any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to call llm bridge %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, response); err != nil {
		return errors.Wrap(err, "failed to unmarshal response")
	}
	return nil
}
