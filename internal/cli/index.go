package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/regidx/internal/pipeline"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Bulk index objects from the local store",
	Long: `Reindex registry objects from the local store into the search
engine, in batches with periodic commits.`,
	Run: runIndex,
}

var (
	indexBatchSize int
	indexMax       int
	indexClear     bool
	indexOptimize  bool
	indexParallel  int
)

func init() {
	indexCmd.Flags().IntVar(&indexBatchSize, "batch-size", 500, "Objects per update request")
	indexCmd.Flags().IntVar(&indexMax, "max", 0, "Maximum objects to index (0 = all)")
	indexCmd.Flags().BoolVar(&indexClear, "clear", false, "Clear this tenant's documents first")
	indexCmd.Flags().BoolVar(&indexOptimize, "optimize", false, "Optimize the index afterwards")
	indexCmd.Flags().IntVar(&indexParallel, "parallel", 1, "Concurrent indexing workers")
}

func runIndex(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initFullContext()
	defer c.Close()

	if !c.Index.Available(bgCtx) {
		exitError("search engine is not available")
	}

	if indexClear {
		fmt.Println("Clearing tenant documents...")
		if !c.Index.ClearIndex(bgCtx) {
			exitError("failed to clear index")
		}
	}

	p := pipeline.New(c.Index, c.Store, c.Logger, pipeline.Options{
		Parallelism: indexParallel,
	})

	fmt.Println("Indexing objects...")
	result, err := p.BulkIndexFromStore(bgCtx, indexBatchSize, indexMax)
	if err != nil {
		exitError("bulk index failed: %v", err)
	}

	if indexOptimize {
		fmt.Println("Optimizing index...")
		c.Index.Optimize(bgCtx)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	green.Printf("Indexed %d objects in %s (%.0f obj/s)\n",
		result.Processed, result.Elapsed.Round(1e6), result.ObjectsPerSecond)
	fmt.Printf("Batches: %d, commits: %d\n", result.Batches, result.Commits)
	if result.Errors > 0 {
		red.Printf("Errors: %d\n", result.Errors)
	}
}
