package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/separation-management/internal/core/events"
	"github.com/frahmantamala/separation-management/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish lifecycle events to a local bus and inspect what subscribers receive`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long: `Publish a test event to a local event bus. Lifecycle event types such as
separation.case_created are built as case events when --case-id is given.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var (
	eventData   string
	eventCaseID int64
)

func publishTestEvent(eventType string) {
	lg := logger.LoggerWrapper()
	eventBus := events.NewEventBus(lg)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	var testEvent events.Event
	if eventCaseID > 0 {
		testEvent = events.NewCaseEvent(eventType, eventCaseID, fmt.Sprintf("CLI-%d", eventCaseID), 0, "", eventData, 0)
	} else {
		testEvent = events.BaseEvent{
			ID:        fmt.Sprintf("test-%d", time.Now().Unix()),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"message": eventData,
				"source":  "cli-command",
			},
		}
	}

	lg.Info("publishing test event", "event_type", eventType, "event_id", testEvent.EventID())

	if err := eventBus.Publish(context.Background(), testEvent); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	eventBus.Wait()
	lg.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message, or the status for case events")
	publishEventCmd.Flags().Int64Var(&eventCaseID, "case-id", 0, "Publish a case event for this case id")

	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
