// Package cli implements the regidx command-line interface.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kilupskalvis/regidx/internal/config"
	"github.com/kilupskalvis/regidx/internal/index"
	"github.com/kilupskalvis/regidx/internal/solr"
	"github.com/kilupskalvis/regidx/internal/store"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config *config.Config
	Store  *store.Store
	Index  *index.Service
	Logger *zap.Logger
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// initContext initializes config, logger, and store (no engine client)
func initContext() *cmdContext {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	logger, err := newLogger()
	if err != nil {
		exitError("failed to create logger: %v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to open store: %v", err)
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		exitError("failed to initialize store: %v", err)
	}

	return &cmdContext{Config: cfg, Store: st, Logger: logger}
}

// initFullContext initializes config, store, and the index service with a
// retrying engine client
func initFullContext() *cmdContext {
	ctx := initContext()

	client := solr.NewClient(
		ctx.Config.Solr.BaseURL(),
		ctx.Config.Solr.Username,
		ctx.Config.Solr.Password,
		time.Duration(ctx.Config.Solr.TimeoutSeconds)*time.Second,
	)
	retrying := solr.NewRetryClient(client, solr.DefaultRetryConfig())
	ctx.Index = index.NewService(ctx.Config, retrying, ctx.Logger)

	return ctx
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("REGIDX_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

var rootCmd = &cobra.Command{
	Use:   "regidx",
	Short: "Registry search indexing service",
	Long: `regidx indexes registry objects into a Solr search engine with
tenant-scoped collections, extracts and chunks document text for full-text
search, and dispatches webhook notifications for registry events.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(webhookCmd)
	rootCmd.AddCommand(workerCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// shortID returns first 8 characters of an ID
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
