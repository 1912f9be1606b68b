// File path: internal/embed/embed.go

// Package embed turns chunk text into vectors. The OpenAI provider is used
// when an API key is configured; otherwise a deterministic local provider
// keeps the pipeline functional without external calls.
package embed

import (
	"context"
	"hash/fnv"
	"math"
	"os"
	"strings"

	"github.com/docsync-dev/docsync/internal/common"
)

// Embedder produces one vector per input string, in input order.
type Embedder interface {
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}

// NewFromEnv selects the provider: OpenAI when OPENAI_API_KEY is set, the
// local hashing provider otherwise.
func NewFromEnv() Embedder {
	logger := common.Logger()
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		return NewOpenAIEmbedder(key)
	}
	logger.Warn("embed: OPENAI_API_KEY not set, using local hashing embedder")
	return NewLocalEmbedder(localDimension)
}

const localDimension = 64

// LocalEmbedder hashes tokens into a fixed-size normalized bag-of-words
// vector. Deterministic: equal text always yields equal vectors.
type LocalEmbedder struct {
	dim int
}

func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = localDimension
	}
	return &LocalEmbedder{dim: dim}
}

func (l *LocalEmbedder) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(input))
	for i, text := range input {
		vectors[i] = l.embedOne(text)
	}
	return vectors, nil
}

func (l *LocalEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, l.dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%l.dim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

func (l *LocalEmbedder) Name() string {
	return "local"
}
