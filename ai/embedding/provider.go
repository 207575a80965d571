// Package embedding turns message text into vectors through an
// OpenAI-compatible embedding API.
package embedding

import (
	"context"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hrygo/mnemos/internal/profile"
)

// Provider generates embeddings via an OpenAI-compatible endpoint.
// SiliconFlow, OpenAI and local gateways all speak this protocol.
type Provider struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewProvider creates an embedding provider from the profile. Returns nil
// when embeddings are not configured; callers treat a nil provider as
// semantic search disabled.
func NewProvider(profile *profile.Profile) *Provider {
	if !profile.IsEmbeddingEnabled() {
		return nil
	}

	config := openai.DefaultConfig(profile.EmbeddingAPIKey)
	if profile.EmbeddingBaseURL != "" {
		config.BaseURL = profile.EmbeddingBaseURL
	}
	return &Provider{
		client:     openai.NewClientWithConfig(config),
		model:      profile.EmbeddingModel,
		dimensions: profile.EmbeddingDimensions,
	}
}

func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) Dimensions() int {
	return p.dimensions
}

// Embed generates the embedding vector for a single text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for multiple texts in one request.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts to embed")
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embeddings")
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
	}
	return vectors, nil
}
