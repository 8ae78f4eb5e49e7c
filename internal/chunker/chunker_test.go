package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// sentences builds n sentences of exactly 100 characters each, index
// embedded so overlap can be verified.
func sentences(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(fmt.Sprintf("%02d", i))
		b.WriteString(strings.Repeat("x", 96))
		b.WriteString(". ")
	}
	return b.String()
}

func TestNormalize(t *testing.T) {
	in := "line one\r\nline\x00 two\t\t  spaced\n\n\n\n\nend"
	got := Normalize(in)

	assert.NotContains(t, got, "\x00")
	assert.NotContains(t, got, "\r")
	assert.NotContains(t, got, "\t")
	assert.NotContains(t, got, "\n\n\n")
	assert.Contains(t, got, "line two")
}

func TestChunkDocument_RecursiveScenario(t *testing.T) {
	// 2,500 characters at chunkSize=1000/overlap=200 packs into 3 chunks
	c := New(zap.NewNop())
	chunks := c.ChunkDocument(sentences(25), "file-1", Options{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunkSize: 100,
		Strategy:     StrategyRecursive,
	})

	require.Len(t, chunks, 3)
	for _, chk := range chunks {
		assert.LessOrEqual(t, len(chk.Text), 1000)
		assert.GreaterOrEqual(t, len(chk.Text), 100)
		assert.Equal(t, 3, chk.TotalChunks)
		assert.Equal(t, "file-1", chk.SourceFileID)
	}

	// each chunk after the first starts with the previous chunk's tail
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		assert.Equal(t, prev[len(prev)-200:], chunks[i].Text[:200])
	}
}

func TestChunkDocument_LongSentenceStaysBounded(t *testing.T) {
	// a sentence longer than the reduced later-chunk budget must be split
	// further so the overlap carry cannot push any chunk past ChunkSize
	text := sentences(11) + strings.Repeat("y", 948) + ". "
	c := New(zap.NewNop())
	chunks := c.ChunkDocument(text, "f", Options{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunkSize: 50,
		Strategy:     StrategyRecursive,
	})

	require.Greater(t, len(chunks), 1)
	for _, chk := range chunks {
		assert.LessOrEqual(t, len(chk.Text), 1000)
	}
}

func TestChunkDocument_ShortTextSingleChunk(t *testing.T) {
	c := New(zap.NewNop())
	chunks := c.ChunkDocument("just a short note", "f", Options{})

	require.Len(t, chunks, 1)
	assert.Equal(t, "just a short note", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].TotalChunks)
}

func TestChunkDocument_EmptyText(t *testing.T) {
	c := New(zap.NewNop())
	assert.Nil(t, c.ChunkDocument("   \n\n  ", "f", Options{}))
}

func TestChunkDocument_MinSizeDrop(t *testing.T) {
	text := strings.Repeat("a", 98) + "\n\n" + strings.Repeat("b", 98) + "\n\ntiny"
	c := New(zap.NewNop())
	chunks := c.ChunkDocument(text, "f", Options{
		ChunkSize:    100,
		ChunkOverlap: 0,
		MinChunkSize: 50,
	})

	require.Len(t, chunks, 2)
	for _, chk := range chunks {
		assert.NotContains(t, chk.Text, "tiny")
	}
}

func TestDropShort(t *testing.T) {
	kept := dropShort([]string{"a long enough piece", "no"}, 10)
	assert.Equal(t, []string{"a long enough piece"}, kept)

	// a single piece survives regardless of size
	kept = dropShort([]string{"no"}, 10)
	assert.Equal(t, []string{"no"}, kept)

	// when everything is short, the first piece is kept
	kept = dropShort([]string{"a", "b"}, 10)
	assert.Equal(t, []string{"a"}, kept)
}

func TestChunkDocument_MaxChunksCap(t *testing.T) {
	c := New(zap.NewNop())
	chunks := c.ChunkDocument(sentences(50), "f", Options{
		ChunkSize:    500,
		ChunkOverlap: 0,
		MinChunkSize: 10,
		MaxChunks:    2,
	})

	require.Len(t, chunks, 2)
	assert.Equal(t, 2, chunks[0].TotalChunks)
}

func TestChunkDocument_FixedStrategy(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 500)) // 2499 chars
	c := New(zap.NewNop())
	chunks := c.ChunkDocument(text, "f", Options{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunkSize: 100,
		Strategy:     StrategyFixed,
	})

	require.Greater(t, len(chunks), 1)
	for _, chk := range chunks {
		assert.LessOrEqual(t, len(chk.Text), 1000)
		// window breaks at a space, never mid-word
		assert.False(t, strings.HasSuffix(chk.Text, "wor"))
	}
}

func TestChunkFixed_BreaksAtSpace(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("alpha beta ", 200))
	pieces := chunkFixed(text, 100, 20)

	for _, p := range pieces[:len(pieces)-1] {
		assert.LessOrEqual(t, len(p), 100)
		assert.False(t, strings.HasSuffix(p, "alph"), "piece cut mid-word: %q", p)
	}
}

func TestSplitUnits_FallsThroughSeparators(t *testing.T) {
	// no paragraph or line breaks; must fall through to sentence splits
	text := sentences(5)
	units := splitUnits(text, separators, 150)

	require.Greater(t, len(units), 1)
	for _, u := range units {
		assert.LessOrEqual(t, len(u), 150)
	}
}

func TestChunkDocument_Offsets(t *testing.T) {
	c := New(zap.NewNop())
	chunks := c.ChunkDocument(sentences(25), "f", Options{
		ChunkSize:    1000,
		ChunkOverlap: 0,
		MinChunkSize: 10,
	})

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].StartOffset, chunks[i-1].StartOffset)
	}
	for _, chk := range chunks {
		assert.Equal(t, chk.StartOffset+len(chk.Text), chk.EndOffset)
	}
}

func TestChunkDocument_OffsetsWithOverlap(t *testing.T) {
	text := sentences(25)
	c := New(zap.NewNop())
	chunks := c.ChunkDocument(text, "f", Options{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunkSize: 100,
	})

	normalized := Normalize(text)
	require.Greater(t, len(chunks), 1)
	for i, chk := range chunks {
		assert.GreaterOrEqual(t, chk.StartOffset, 0)
		assert.LessOrEqual(t, chk.EndOffset, len(normalized))
		if i > 0 {
			// the carried overlap begins before the previous chunk's end
			assert.Less(t, chk.StartOffset, chunks[i-1].EndOffset)
			assert.Greater(t, chk.EndOffset, chunks[i-1].EndOffset)
		}
	}
}
