package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilupskalvis/regidx/internal/webhook"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the webhook retry worker",
	Long: `Run the background worker that drains the webhook retry outbox,
re-attempting failed deliveries when their backoff expires. Also prunes
delivery logs past the retention window on each pass.`,
	Run: runWorker,
}

var workerOnce bool

func init() {
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "Process due retries once and exit")
}

func runWorker(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	outbox, err := webhook.OpenOutbox(c.Config.OutboxPath())
	if err != nil {
		exitError("failed to open outbox: %v", err)
	}
	defer outbox.Close()

	dispatcher := webhook.NewDispatcher(c.Store, outbox, c.Config.Webhook, "regidx", c.Logger)
	interval := time.Duration(c.Config.Webhook.WorkerIntervalSeconds) * time.Second
	worker := webhook.NewWorker(dispatcher, outbox, interval, c.Logger)

	bgCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pruneLogs(bgCtx, c)

	if workerOnce {
		if err := worker.RunOnce(bgCtx); err != nil {
			exitError("retry pass failed: %v", err)
		}
		n, _ := outbox.Len()
		fmt.Printf("Done. %d deliveries still parked.\n", n)
		return
	}

	fmt.Printf("Worker running (interval %s). Ctrl-C to stop.\n", interval)
	if err := worker.Run(bgCtx); err != nil && err != context.Canceled {
		exitError("worker stopped: %v", err)
	}
	fmt.Println("\nWorker stopped.")
}

// pruneLogs applies the search-trail retention window to delivery logs.
func pruneLogs(ctx context.Context, c *cmdContext) {
	retention := time.Duration(c.Config.Retention.SearchTrailMS) * time.Millisecond
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)
	if n, err := c.Store.PruneDeliveryLogs(ctx, cutoff); err == nil && n > 0 {
		fmt.Printf("Pruned %d delivery logs older than %s\n", n, cutoff.Format(time.RFC3339))
	}
}
