package leave

import (
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

type LeaveType string

const (
	LeaveTypeVacation LeaveType = "Vacation"
	LeaveTypeSick     LeaveType = "Sick"
	LeaveTypePersonal LeaveType = "Personal"
	LeaveTypeOther    LeaveType = "Other"
)

var leaveTypes = []LeaveType{LeaveTypeVacation, LeaveTypeSick, LeaveTypePersonal, LeaveTypeOther}

// ParseLeaveType matches the exact stored name.
func ParseLeaveType(s string) (LeaveType, bool) {
	for _, t := range leaveTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

func LeaveTypeNames() []string {
	names := make([]string, len(leaveTypes))
	for i, t := range leaveTypes {
		names[i] = string(t)
	}
	return names
}

type LeaveStatus string

const (
	StatusPending  LeaveStatus = "Pending"
	StatusApproved LeaveStatus = "Approved"
	StatusRejected LeaveStatus = "Rejected"
)

func ParseLeaveStatus(s string) (LeaveStatus, bool) {
	switch LeaveStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return LeaveStatus(s), true
	}
	return "", false
}

func (s LeaveStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

const (
	DateLayout     = "2006-01-02"
	MaxReasonRunes = 1000
)

var (
	ErrLeaveNotFound       = internal.ErrLeaveNotFound
	ErrLeaveAlreadyDecided = internal.ErrLeaveAlreadyDecided
	ErrTransitionConflict  = internal.ErrTransitionConflict
	ErrUnauthorizedAccess  = internal.ErrUnauthorizedAccess
)

type LeaveRequest struct {
	ID            int64       `json:"id"`
	UserID        string      `json:"user_id"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       time.Time   `json:"end_date"`
	Type          LeaveType   `json:"type"`
	Reason        *string     `json:"reason,omitempty"`
	Status        LeaveStatus `json:"status"`
	AttachmentURL *string     `json:"attachment_url,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (r *LeaveRequest) IsPending() bool {
	return r.Status == StatusPending
}

// CanTransitionTo reports whether target is reachable from the current
// status. Only Pending moves, and only to a terminal status.
func (r *LeaveRequest) CanTransitionTo(target LeaveStatus) bool {
	return r.IsPending() && target.IsTerminal()
}

func (r *LeaveRequest) IsOwnedBy(userID string) bool {
	return r.UserID == NormalizeUserID(userID)
}

// NewLeaveRequest assigns every server-owned field. The dto must already be
// validated. CreatedAt is kept at the microsecond precision of TIMESTAMPTZ.
func NewLeaveRequest(dto CreateLeaveDTO, now time.Time) *LeaveRequest {
	leaveType, _ := ParseLeaveType(dto.Type)

	return &LeaveRequest{
		UserID:        NormalizeUserID(dto.UserID),
		StartDate:     TruncateToDate(dto.StartDate),
		EndDate:       TruncateToDate(dto.EndDate),
		Type:          leaveType,
		Reason:        normalizeOptional(dto.Reason),
		Status:        StatusPending,
		AttachmentURL: normalizeOptional(dto.AttachmentURL),
		CreatedAt:     now.UTC().Truncate(time.Microsecond),
	}
}

// NormalizeUserID is the single canonicalization applied to user ids, both
// when storing and when querying. Case is preserved.
func NormalizeUserID(userID string) string {
	return strings.TrimSpace(userID)
}

func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func ToDataModel(r *LeaveRequest) *leaveDatamodel.LeaveRequest {
	return &leaveDatamodel.LeaveRequest{
		ID:            r.ID,
		UserID:        r.UserID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Type:          string(r.Type),
		Reason:        r.Reason,
		Status:        string(r.Status),
		AttachmentURL: r.AttachmentURL,
		CreatedAt:     r.CreatedAt,
	}
}
