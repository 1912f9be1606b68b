// File path: internal/index/index.go

// Package index abstracts the vector store holding searchable document
// chunks. The reconciliation pipeline depends on this interface; the
// ChromaDB client is the concrete implementation.
package index

import "context"

// Document is one indexed chunk. ID is unique per chunk; DocID groups the
// chunks of one source file so the whole file can be purged at once.
type Document struct {
	ID       string
	DocID    string
	Text     string
	Metadata map[string]interface{}
}

// SearchResult is one scored hit from a vector query.
type SearchResult struct {
	ID      string
	Score   float32
	Payload map[string]interface{}
}

// Store is the pipeline's view of the vector index. Upsert replaces chunks
// by ID; DeleteByDocID purges every chunk belonging to a source document and
// reports how many were removed.
type Store interface {
	Available() bool
	EnsureCollection(ctx context.Context, dim int) error
	Upsert(ctx context.Context, docs []Document, vectors [][]float32) error
	DeleteByDocID(ctx context.Context, docID string) (int, error)
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)
}

// VectorDimension returns the dimensionality of the first non-empty vector.
func VectorDimension(v [][]float32) int {
	for _, vec := range v {
		if len(vec) > 0 {
			return len(vec)
		}
	}
	return 0
}
