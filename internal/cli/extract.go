package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/regidx/internal/chunker"
	"github.com/kilupskalvis/regidx/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract, chunk, and index a document",
	Long: `Extract text from a document (pdf, docx, xlsx, pptx, html, txt,
md, json, xml, or images via OCR), split it into overlapping chunks, and
index the chunks for full-text search.`,
	Args: cobra.ExactArgs(1),
	Run:  runExtract,
}

var (
	extractDryRun bool
	extractFileID string
)

func init() {
	extractCmd.Flags().BoolVar(&extractDryRun, "dry-run", false, "Print chunks without indexing")
	extractCmd.Flags().StringVar(&extractFileID, "file-id", "", "File identifier (default: base name)")
}

func runExtract(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	path := args[0]

	fileID := extractFileID
	if fileID == "" {
		fileID = filepath.Base(path)
	}

	c := initFullContext()
	defer c.Close()

	text, err := extract.NewExtractor().Extract(path)
	if err != nil {
		exitError("extraction failed: %v", err)
	}
	fmt.Printf("Extracted %d characters from %s\n", len(text), path)

	ch := chunker.New(c.Logger)
	chunks := ch.ChunkDocument(text, fileID, chunker.Options{
		ChunkSize:    c.Config.Chunking.ChunkSize,
		ChunkOverlap: c.Config.Chunking.ChunkOverlap,
		MinChunkSize: c.Config.Chunking.MinChunkSize,
		MaxChunks:    c.Config.Chunking.MaxChunksPerFile,
		Strategy:     chunker.Strategy(c.Config.Chunking.Strategy),
	})
	fmt.Printf("Split into %d chunks\n", len(chunks))

	if extractDryRun {
		cyan := color.New(color.FgCyan)
		for _, chk := range chunks {
			cyan.Printf("--- chunk %d/%d [%d:%d]\n", chk.Index+1, chk.TotalChunks, chk.StartOffset, chk.EndOffset)
			fmt.Println(chk.Text)
		}
		return
	}

	meta := map[string]interface{}{
		"file_name": filepath.Base(path),
	}
	if !c.Index.IndexFileChunks(bgCtx, fileID, chunks, meta) {
		exitError("failed to index chunks")
	}
	color.New(color.FgGreen).Printf("Indexed %d chunks for %s\n", len(chunks), fileID)
}
