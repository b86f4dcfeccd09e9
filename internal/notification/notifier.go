package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/leave"
)

// BusNotifier satisfies leave.NotificationSender by publishing a
// LeaveDecidedEvent. Delivery happens on the subscriber's goroutine so the
// caller never waits on e-mail.
type BusNotifier struct {
	bus *events.EventBus
}

func NewBusNotifier(bus *events.EventBus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (n *BusNotifier) NotifyStatusChange(ctx context.Context, sn leave.StatusNotification) error {
	event := events.NewLeaveDecidedEvent(
		sn.LeaveID,
		sn.RecipientID,
		sn.ApproverID,
		string(sn.LeaveType),
		sn.StartDate,
		sn.EndDate,
		string(sn.Status),
		sn.Reason,
	)
	// the request context is cancelled as soon as the response is written
	return n.bus.Publish(internal.Detached(ctx), event)
}

var ErrNoRecipientAddress = errors.New("no e-mail address for recipient")

// AddressResolver turns a user id into a deliverable address: ids that are
// already addresses pass through, bare ids get the default domain.
type AddressResolver struct {
	DefaultDomain string
}

func (r AddressResolver) Resolve(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if strings.Contains(userID, "@") {
		return userID, nil
	}
	domain := strings.TrimPrefix(strings.TrimSpace(r.DefaultDomain), "@")
	if userID == "" || domain == "" {
		return "", fmt.Errorf("%w: %q", ErrNoRecipientAddress, userID)
	}
	return userID + "@" + domain, nil
}

// Subscriber e-mails the requester when their leave is decided.
type Subscriber struct {
	mailer   Mailer
	resolver AddressResolver
	logger   *slog.Logger
}

func NewSubscriber(mailer Mailer, resolver AddressResolver, logger *slog.Logger) *Subscriber {
	return &Subscriber{mailer: mailer, resolver: resolver, logger: logger}
}

func (s *Subscriber) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeLeaveDecided, s.HandleLeaveDecided)
}

func (s *Subscriber) HandleLeaveDecided(ctx context.Context, event events.Event) error {
	decided, ok := event.(*events.LeaveDecidedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	address, err := s.resolver.Resolve(decided.UserID)
	if err != nil {
		s.logger.Warn("leave decision not e-mailed", "error", err, "leave_id", decided.LeaveID)
		return nil
	}

	email, err := BuildStatusEmail(address, StatusMessage{
		LeaveType: decided.LeaveType,
		StartDate: decided.StartDate,
		EndDate:   decided.EndDate,
		Status:    decided.Status,
		Reason:    decided.Reason,
	})
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to e-mail leave decision %d: %w", decided.LeaveID, err)
	}

	s.logger.Info("leave decision e-mailed", "leave_id", decided.LeaveID, "status", decided.Status)
	return nil
}
