// File path: internal/index/chunker.go
package index

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	defaultChunkSize    = 3072
	defaultChunkOverlap = 200
)

// Chunker splits fetched file content into indexable chunks. Markdown files
// split on heading structure; everything else splits recursively on
// paragraph boundaries.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker builds a chunker, substituting defaults for non-positive values.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
	}
	return &Chunker{size: size, overlap: overlap}
}

// NewChunkerFromEnv reads CHUNK_SIZE and CHUNK_OVERLAP.
func NewChunkerFromEnv() (*Chunker, error) {
	size := defaultChunkSize
	overlap := defaultChunkOverlap
	if value := strings.TrimSpace(os.Getenv("CHUNK_SIZE")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("parse CHUNK_SIZE: %w", err)
		}
		if parsed > 0 {
			size = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("CHUNK_OVERLAP")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("parse CHUNK_OVERLAP: %w", err)
		}
		if parsed >= 0 {
			overlap = parsed
		}
	}
	return NewChunker(size, overlap), nil
}

// Split chunks one file into documents. Chunk IDs are docID#index so the
// whole file is addressable through its doc_id metadata. The shared metadata
// map is copied into each chunk.
func (c *Chunker) Split(docID, path, text string, metadata map[string]interface{}) ([]Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	splitter := c.splitterFor(path)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", path, err)
	}
	docs := make([]Document, 0, len(parts))
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunkMeta := make(map[string]interface{}, len(metadata)+2)
		for k, v := range metadata {
			chunkMeta[k] = v
		}
		chunkMeta["chunk"] = i
		chunkMeta["path"] = path
		docs = append(docs, Document{
			ID:       fmt.Sprintf("%s#%d", docID, i),
			DocID:    docID,
			Text:     part,
			Metadata: chunkMeta,
		})
	}
	return docs, nil
}

func (c *Chunker) splitterFor(path string) textsplitter.TextSplitter {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".mdx") {
		return textsplitter.NewMarkdownTextSplitter(
			textsplitter.WithChunkSize(c.size),
			textsplitter.WithChunkOverlap(c.overlap),
		)
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.size),
		textsplitter.WithChunkOverlap(c.overlap),
	)
}
