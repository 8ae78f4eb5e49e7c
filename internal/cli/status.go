package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show indexing status and statistics",
	Long:  `Show the tenant, collection, and process-lifetime operation counters.`,
	Run:   runStatus,
}

var statusPing bool

func init() {
	statusCmd.Flags().BoolVar(&statusPing, "ping", false, "Check engine reachability")
}

func runStatus(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initFullContext()
	defer c.Close()

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	if statusPing {
		if c.Index.Available(bgCtx) {
			green.Println("Engine: available")
		} else {
			red.Println("Engine: unavailable")
		}
	}

	st := c.Index.Statistics()

	fmt.Printf("Tenant:     %s\n", st.TenantID)
	fmt.Printf("Collection: %s\n", st.Collection)
	if st.Degraded {
		yellow.Println("Isolation:  degraded (shared base collection)")
	}
	if !st.Enabled {
		yellow.Println("Indexing:   disabled")
	}
	if st.Error != "" {
		fmt.Printf("Note:       %s\n", st.Error)
	}

	fmt.Println()
	fmt.Printf("Indexed:    %d\n", st.Indexes)
	fmt.Printf("Deleted:    %d\n", st.Deletes)
	fmt.Printf("Searches:   %d\n", st.Searches)
	if st.Errors > 0 {
		red.Printf("Errors:     %d\n", st.Errors)
	} else {
		fmt.Printf("Errors:     %d\n", st.Errors)
	}
	if st.AvgIndexMS > 0 {
		fmt.Printf("Avg index:  %.1fms\n", st.AvgIndexMS)
	}
	if st.AvgQueryMS > 0 {
		fmt.Printf("Avg query:  %.1fms\n", st.AvgQueryMS)
	}

	total, err := c.Store.TotalCount(bgCtx)
	if err == nil {
		fmt.Printf("\nObjects in store: %d\n", total)
	}
}
