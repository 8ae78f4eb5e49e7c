package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/regidx/internal/models"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage webhook subscriptions",
}

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured webhooks",
	Run:   runWebhookList,
}

var webhookAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Register a webhook",
	Args:  cobra.ExactArgs(2),
	Run:   runWebhookAdd,
}

var webhookLogsCmd = &cobra.Command{
	Use:   "logs <id>",
	Short: "Show recent delivery attempts for a webhook",
	Args:  cobra.ExactArgs(1),
	Run:   runWebhookLogs,
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a webhook",
	Args:  cobra.ExactArgs(1),
	Run:   runWebhookDelete,
}

var (
	webhookEvents  []string
	webhookSecret  string
	webhookRetries int
	webhookPolicy  string
	logsLimit      int
)

func init() {
	webhookAddCmd.Flags().StringArrayVar(&webhookEvents, "event", []string{"*"}, "Event class to listen for (repeatable)")
	webhookAddCmd.Flags().StringVar(&webhookSecret, "secret", "", "HMAC signing secret")
	webhookAddCmd.Flags().IntVar(&webhookRetries, "max-retries", 3, "Retry attempts for failed deliveries")
	webhookAddCmd.Flags().StringVar(&webhookPolicy, "retry-policy", "exponential", "Retry policy: exponential, linear, or fixed")
	webhookLogsCmd.Flags().IntVar(&logsLimit, "limit", 20, "Number of attempts to show")

	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookAddCmd)
	webhookCmd.AddCommand(webhookLogsCmd)
	webhookCmd.AddCommand(webhookDeleteCmd)
}

func runWebhookList(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	hooks, err := c.Store.ListWebhooks(bgCtx)
	if err != nil {
		exitError("failed to list webhooks: %v", err)
	}
	if len(hooks) == 0 {
		fmt.Println("No webhooks configured.")
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	for _, w := range hooks {
		state := "disabled"
		paint := red
		if w.Enabled {
			state = "enabled"
			paint = green
		}
		fmt.Printf("%d  %s  %s  ", w.ID, shortID(w.UUID), w.Name)
		paint.Printf("[%s]\n", state)
		fmt.Printf("    %s %s\n", w.Method, w.URL)
		fmt.Printf("    events: %v", w.Events)
		if w.EnableRetries {
			fmt.Printf("  retries: %d (%s)", w.MaxRetries, w.RetryPolicy)
		}
		fmt.Println()
		fmt.Printf("    delivered: %d ok, %d failed", w.Stats.Successes, w.Stats.Failures)
		if w.Stats.LastAttempt != nil {
			fmt.Printf("  last: %s", w.Stats.LastAttempt.Format(time.RFC3339))
		}
		fmt.Println()
	}
}

func runWebhookAdd(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	w := &models.Webhook{
		Name:          args[0],
		URL:           args[1],
		Method:        "POST",
		Enabled:       true,
		Secret:        webhookSecret,
		Events:        webhookEvents,
		EnableRetries: webhookRetries > 0,
		MaxRetries:    webhookRetries,
		RetryPolicy:   models.RetryPolicy(webhookPolicy),
	}
	if err := c.Store.SaveWebhook(bgCtx, w); err != nil {
		exitError("failed to save webhook: %v", err)
	}
	color.New(color.FgGreen).Printf("Registered webhook %d (%s)\n", w.ID, shortID(w.UUID))
}

func runWebhookLogs(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	var id int64
	if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
		exitError("invalid webhook id %q", args[0])
	}

	logs, err := c.Store.DeliveryLogs(bgCtx, id, logsLimit)
	if err != nil {
		exitError("failed to load logs: %v", err)
	}
	if len(logs) == 0 {
		fmt.Println("No delivery attempts recorded.")
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	for _, l := range logs {
		when := l.CreatedAt.Format(time.RFC3339)
		if l.Success {
			green.Printf("%s  attempt %d  %d  %s\n", when, l.Attempt, l.StatusCode, l.EventClass)
		} else {
			red.Printf("%s  attempt %d  %d  %s\n", when, l.Attempt, l.StatusCode, l.EventClass)
			if l.ErrorMessage != "" {
				fmt.Printf("    %s\n", l.ErrorMessage)
			}
			if l.NextRetryAt != nil {
				fmt.Printf("    next retry: %s\n", l.NextRetryAt.Format(time.RFC3339))
			}
		}
	}
}

func runWebhookDelete(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	var id int64
	if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
		exitError("invalid webhook id %q", args[0])
	}
	if err := c.Store.DeleteWebhook(bgCtx, id); err != nil {
		exitError("failed to delete webhook: %v", err)
	}
	fmt.Printf("Deleted webhook %d\n", id)
}
