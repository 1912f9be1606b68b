// File path: internal/embed/openai.go
package embed

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/docsync-dev/docsync/internal/common"
)

// OpenAIEmbedder calls the OpenAI embeddings API. The model comes from
// OPENAI_EMBED_MODEL, defaulting to text-embedding-3-small.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

func NewOpenAIEmbedder(apiKey string) *OpenAIEmbedder {
	model := strings.TrimSpace(os.Getenv("OPENAI_EMBED_MODEL"))
	if model == "" {
		model = "text-embedding-3-small"
	}
	logger := common.Logger()
	logger.Info("embed: OpenAI embedder configured", "model", model)
	return &OpenAIEmbedder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (o *OpenAIEmbedder) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, nil
	}
	logger := common.Logger()
	logger.Debug("embed: creating embeddings", "model", o.model, "items", len(input))
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(o.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: input},
	})
	if err != nil {
		logger.Error("embed: embedding request failed", "error", err)
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(input))
	}
	vectors := make([][]float32, 0, len(resp.Data))
	for _, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		vectors = append(vectors, vec)
	}
	logger.Debug("embed: embedding request succeeded", "returned", len(vectors))
	return vectors, nil
}

func (o *OpenAIEmbedder) Name() string {
	return "openai"
}
