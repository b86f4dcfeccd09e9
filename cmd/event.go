package cmd

import (
	"context"
	"log"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/notification"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish events through the in-process bus to check subscribers end to end`,
}

var publishDecisionCmd = &cobra.Command{
	Use:   "publish-decision",
	Short: "Publish a leave.decided event",
	Long:  `Publish a synthetic leave decision so the e-mail subscriber renders and sends it with the configured mailer`,
	Run: func(cmd *cobra.Command, args []string) {
		publishDecision()
	},
}

var (
	eventUser   string
	eventStatus string
	eventType   string
	eventReason string
	eventWait   time.Duration
)

func publishDecision() {
	config, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := setupLogger(config)

	status, ok := leave.ParseLeaveStatus(eventStatus)
	if !ok || !status.IsTerminal() {
		log.Fatalf("status must be %s or %s, got %q", leave.StatusApproved, leave.StatusRejected, eventStatus)
	}
	leaveType, ok := leave.ParseLeaveType(eventType)
	if !ok {
		log.Fatalf("unknown leave type %q", eventType)
	}

	bus := events.NewEventBus(lg)
	subscriber := notification.NewSubscriber(
		initMailer(config.Notification, lg),
		notification.AddressResolver{DefaultDomain: config.Notification.RecipientDomain},
		lg,
	)
	subscriber.Register(bus)

	today := leave.TruncateToDate(time.Now().UTC())
	notifier := notification.NewBusNotifier(bus)
	err = notifier.NotifyStatusChange(context.Background(), leave.StatusNotification{
		LeaveID:     0,
		RecipientID: eventUser,
		ApproverID:  "cli",
		LeaveType:   leaveType,
		StartDate:   today,
		EndDate:     today.AddDate(0, 0, 1),
		Status:      status,
		Reason:      eventReason,
	})
	if err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventWait)
	defer cancel()
	if err := bus.Drain(ctx); err != nil {
		lg.Error("subscriber did not finish in time", "error", err, "wait", eventWait)
		return
	}
	lg.Info("leave decision event delivered", "user_id", eventUser, "status", status)
}

func init() {
	publishDecisionCmd.Flags().StringVarP(&eventUser, "user", "u", "", "requester user id or e-mail address")
	publishDecisionCmd.Flags().StringVar(&eventStatus, "status", string(leave.StatusApproved), "Approved or Rejected")
	publishDecisionCmd.Flags().StringVar(&eventType, "type", string(leave.LeaveTypeVacation), "leave type")
	publishDecisionCmd.Flags().StringVar(&eventReason, "reason", "", "optional rejection reason")
	publishDecisionCmd.Flags().DurationVar(&eventWait, "wait", 10*time.Second, "how long to wait for delivery")
	_ = publishDecisionCmd.MarkFlagRequired("user")

	eventCmd.AddCommand(publishDecisionCmd)
}
