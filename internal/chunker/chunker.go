// Package chunker splits extracted document text into overlapping,
// boundary-aware chunks for indexing.
package chunker

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kilupskalvis/regidx/internal/models"
)

// Strategy selects the chunking algorithm.
type Strategy string

const (
	StrategyRecursive Strategy = "recursive"
	StrategyFixed     Strategy = "fixed"
)

// Options control one chunking run. Zero values get defaults.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int
	MaxChunks    int
	Strategy     Strategy
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1000
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = o.ChunkSize / 5
	}
	if o.MinChunkSize <= 0 {
		o.MinChunkSize = 100
	}
	if o.MaxChunks <= 0 {
		o.MaxChunks = 1000
	}
	if o.Strategy == "" {
		o.Strategy = StrategyRecursive
	}
	return o
}

// separators, in preference order: paragraph break, line break, sentence
// punctuation, clause punctuation, space.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " "}

var (
	nulBytes  = strings.NewReplacer("\x00", "", "\r\n", "\n", "\r", "\n")
	spaceRuns = regexp.MustCompile(`[ \t]+`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// Chunker splits normalized text into chunks.
type Chunker struct {
	logger *zap.Logger
}

// New creates a Chunker.
func New(logger *zap.Logger) *Chunker {
	return &Chunker{logger: logger}
}

// Normalize prepares raw extracted text: null bytes removed, CRLF folded to
// LF, whitespace runs collapsed, and excess blank lines reduced.
func Normalize(text string) string {
	s := nulBytes.Replace(text)
	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ChunkDocument normalizes and splits text for the given source file.
// Chunks shorter than MinChunkSize are dropped unless the result would be a
// single chunk; output is capped at MaxChunks with the overflow truncated
// and a warning logged.
func (c *Chunker) ChunkDocument(text, sourceFileID string, opts Options) []models.Chunk {
	opts = opts.withDefaults()

	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	var pieces []string
	switch opts.Strategy {
	case StrategyFixed:
		pieces = chunkFixed(normalized, opts.ChunkSize, opts.ChunkOverlap)
	default:
		pieces = chunkRecursive(normalized, opts.ChunkSize, opts.ChunkOverlap)
	}

	pieces = dropShort(pieces, opts.MinChunkSize)

	if len(pieces) > opts.MaxChunks {
		c.logger.Warn("chunk count exceeds cap, truncating",
			zap.String("file", sourceFileID),
			zap.Int("chunks", len(pieces)),
			zap.Int("cap", opts.MaxChunks))
		pieces = pieces[:opts.MaxChunks]
	}

	chunks := make([]models.Chunk, len(pieces))
	offset := 0
	for i, p := range pieces {
		// a chunk's carried overlap begins before the previous chunk's end
		from := offset - opts.ChunkOverlap
		if from < 0 {
			from = 0
		}
		if from > len(normalized) {
			from = len(normalized)
		}
		start := strings.Index(normalized[from:], p)
		if start >= 0 {
			start += from
		} else {
			start = from
		}
		end := start + len(p)
		if end > len(normalized) {
			end = len(normalized)
		}
		chunks[i] = models.Chunk{
			Text:         p,
			StartOffset:  start,
			EndOffset:    end,
			Index:        i,
			TotalChunks:  len(pieces),
			SourceFileID: sourceFileID,
		}
		offset = end
	}
	return chunks
}

// dropShort removes chunks below the minimum size unless only one chunk
// remains overall.
func dropShort(pieces []string, minSize int) []string {
	if len(pieces) <= 1 {
		return pieces
	}
	kept := pieces[:0:0]
	for _, p := range pieces {
		if len(p) >= minSize {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return pieces[:1]
	}
	return kept
}

// chunkFixed slides a window of size with an overlap step-back, preferring
// to break at the last space within the tail 20% of the window so words are
// not cut mid-way.
func chunkFixed(text string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}

	var out []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			out = append(out, text[start:])
			break
		}

		window := text[start:end]
		tail := int(float64(size) * 0.8)
		if idx := strings.LastIndexByte(window[tail:], ' '); idx >= 0 {
			end = start + tail + idx
		}
		out = append(out, strings.TrimSpace(text[start:end]))

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return out
}

// chunkRecursive splits on the first separator whose pieces fit under size,
// recursing into oversized pieces with the remaining separator list and
// falling back to fixed chunking once separators are exhausted. Overlap is
// carried forward by prepending the trailing overlap characters of the
// previous chunk.
func chunkRecursive(text string, size, overlap int) []string {
	units := splitUnits(text, separators, size)

	// Pack units greedily. The first chunk may use the full size; later
	// chunks reserve room for the prepended overlap so no chunk exceeds
	// size. A single unit longer than the current budget is split further
	// before packing.
	var packed []string
	var current strings.Builder
	budget := size
	flush := func() {
		if current.Len() > 0 {
			packed = append(packed, strings.TrimSpace(current.String()))
			current.Reset()
			budget = size - overlap
		}
	}
	var write func(u string)
	write = func(u string) {
		if current.Len() > 0 && current.Len()+len(u) > budget {
			flush()
		}
		if len(u) > budget {
			for _, part := range splitUnits(u, separators, budget) {
				write(part)
			}
			return
		}
		current.WriteString(u)
	}
	for _, u := range units {
		write(u)
	}
	flush()

	if overlap <= 0 || len(packed) <= 1 {
		return packed
	}

	out := make([]string, len(packed))
	out[0] = packed[0]
	for i := 1; i < len(packed); i++ {
		prev := packed[i-1]
		carry := prev
		if len(prev) > overlap {
			carry = prev[len(prev)-overlap:]
		}
		out[i] = carry + packed[i]
	}
	return out
}

// splitUnits recursively splits text into pieces no larger than size using
// the separator preference list.
func splitUnits(text string, seps []string, size int) []string {
	if len(text) <= size {
		return []string{text}
	}
	if len(seps) == 0 {
		return chunkFixed(text, size, 0)
	}

	sep := seps[0]
	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		// separator absent; try the next one
		return splitUnits(text, seps[1:], size)
	}

	var out []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len(p) <= size {
			out = append(out, p)
			continue
		}
		out = append(out, splitUnits(p, seps[1:], size)...)
	}
	return out
}
