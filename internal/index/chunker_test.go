// File path: internal/index/chunker_test.go
package index

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitMarkdownProducesChunks(t *testing.T) {
	chunker := NewChunker(200, 0)
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&sb, "## Section %d\n\n%s\n\n", i, strings.Repeat("lorem ipsum dolor ", 10))
	}

	docs, err := chunker.Split("o/r:docs/guide.md", "docs/guide.md", sb.String(),
		map[string]interface{}{"repo": "o/r"})
	require.NoError(t, err)
	require.Greater(t, len(docs), 1)

	for i, doc := range docs {
		require.Equal(t, fmt.Sprintf("o/r:docs/guide.md#%d", i), doc.ID)
		require.Equal(t, "o/r:docs/guide.md", doc.DocID)
		require.Equal(t, "o/r", doc.Metadata["repo"])
		require.Equal(t, "docs/guide.md", doc.Metadata["path"])
		require.Equal(t, i, doc.Metadata["chunk"])
		require.NotEmpty(t, strings.TrimSpace(doc.Text))
	}
}

func TestSplitPlainTextUsesRecursiveSplitter(t *testing.T) {
	chunker := NewChunker(100, 10)
	text := strings.Repeat("one two three four five six seven eight nine ten\n\n", 20)

	docs, err := chunker.Split("o/r:README.txt", "README.txt", text, nil)
	require.NoError(t, err)
	require.Greater(t, len(docs), 1)
}

func TestSplitEmptyTextReturnsNothing(t *testing.T) {
	chunker := NewChunker(0, -1)
	docs, err := chunker.Split("o/r:empty.md", "empty.md", "   \n  ", nil)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunker := NewChunker(3072, 200)
	docs, err := chunker.Split("o/r:a.md", "a.md", "# Title\n\nShort body.", nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "o/r:a.md#0", docs[0].ID)
}
