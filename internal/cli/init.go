package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilupskalvis/regidx/internal/config"
	"github.com/kilupskalvis/regidx/internal/solr"
	"github.com/kilupskalvis/regidx/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new regidx workspace",
	Long: `Initialize a new regidx workspace in the current directory.
This creates a .regidx directory holding configuration and local databases.`,
	Run: runInit,
}

var (
	initHost string
	initPort int
)

func init() {
	initCmd.Flags().StringVar(&initHost, "host", "localhost", "Solr host")
	initCmd.Flags().IntVar(&initPort, "port", 8983, "Solr port")
}

func runInit(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if _, err := config.FindRoot(); err == nil {
		exitError("regidx workspace already exists")
	}

	fmt.Printf("Initializing regidx workspace...\n")

	cfg, err := config.Initialize(initHost, initPort)
	if err != nil {
		exitError("failed to initialize config: %v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to create store: %v", err)
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		exitError("failed to initialize store: %v", err)
	}

	// Connection check is advisory: indexing can be enabled later
	client := solr.NewClient(cfg.Solr.BaseURL(), cfg.Solr.Username, cfg.Solr.Password,
		time.Duration(cfg.Solr.TimeoutSeconds)*time.Second)
	fmt.Printf("Connecting to Solr at %s...\n", cfg.Solr.BaseURL())
	if err := client.Ping(ctx, cfg.Solr.Core); err != nil {
		fmt.Printf("Warning: could not reach Solr: %v\n", err)
		fmt.Printf("Indexing will retry on first use.\n")
	} else {
		fmt.Printf("Solr is reachable.\n")
	}

	fmt.Printf("\nInitialized empty regidx workspace in %s/\n", config.RegidxDir)
	fmt.Printf("Base collection: %s\n", cfg.Solr.Core)
}
