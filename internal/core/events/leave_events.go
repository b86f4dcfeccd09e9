package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLeaveDecided = "leave.decided"
)

// LeaveDecidedEvent is published once a leave request left Pending.
type LeaveDecidedEvent struct {
	BaseEvent
	LeaveID    int64     `json:"leave_id"`
	UserID     string    `json:"user_id"`
	ApproverID string    `json:"approver_id"`
	LeaveType  string    `json:"leave_type"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
}

func NewLeaveDecidedEvent(leaveID int64, userID, approverID, leaveType string, startDate, endDate time.Time, status, reason string) *LeaveDecidedEvent {
	return &LeaveDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLeaveDecided,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"leave_id":    leaveID,
				"user_id":     userID,
				"approver_id": approverID,
				"leave_type":  leaveType,
				"status":      status,
			},
		},
		LeaveID:    leaveID,
		UserID:     userID,
		ApproverID: approverID,
		LeaveType:  leaveType,
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     status,
		Reason:     reason,
	}
}
