package leave

import (
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
)

// CreateLeaveDTO is the input to Service.Create. Status and creation time are
// deliberately absent: the server assigns both.
type CreateLeaveDTO struct {
	UserID        string
	StartDate     time.Time
	EndDate       time.Time
	Type          string
	Reason        *string
	AttachmentURL *string
}

// Validate checks, in order: user id, date range, leave type, reason length.
func (dto CreateLeaveDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("user_id", dto.UserID).
		Required(internal.ErrCodeInvalidUserID)
	v.Field("start_date", dto.StartDate).
		Required(internal.ErrCodeInvalidDate)
	v.Field("end_date", dto.EndDate).
		Required(internal.ErrCodeInvalidDate).
		NotBefore(dto.StartDate, "start_date", internal.ErrCodeInvalidDateRange)
	v.Field("type", dto.Type).
		OneOf(LeaveTypeNames(), internal.ErrCodeInvalidLeaveType)
	v.Field("reason", dto.Reason).
		MaxLength(MaxReasonRunes, internal.ErrCodeInvalidReason)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CreateLeaveRequest is the HTTP body for POST /leaves. The owner comes from
// the caller's identity, never from the body.
type CreateLeaveRequest struct {
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Type          string  `json:"type"`
	Reason        *string `json:"reason,omitempty"`
	AttachmentURL *string `json:"attachment_url,omitempty"`
}

func (req CreateLeaveRequest) ToDTO(userID string) (CreateLeaveDTO, error) {
	start, err := ParseDate("start_date", req.StartDate)
	if err != nil {
		return CreateLeaveDTO{}, err
	}
	end, err := ParseDate("end_date", req.EndDate)
	if err != nil {
		return CreateLeaveDTO{}, err
	}

	return CreateLeaveDTO{
		UserID:        userID,
		StartDate:     start,
		EndDate:       end,
		Type:          req.Type,
		Reason:        req.Reason,
		AttachmentURL: req.AttachmentURL,
	}, nil
}

// ParseDate accepts a calendar date or a full RFC3339 timestamp and keeps the
// date part.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, internal.NewValidationFieldError(field, field+" is required", internal.ErrCodeInvalidDate)
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return TruncateToDate(t), nil
	}
	return time.Time{}, internal.NewValidationFieldError(field, field+" must be a date in YYYY-MM-DD format", internal.ErrCodeInvalidDate)
}

type RejectLeaveRequest struct {
	Reason string `json:"reason,omitempty"`
}

type LeaveListResponse struct {
	Leaves []*LeaveRequest `json:"leaves"`
	Count  int             `json:"count"`
}

func NewLeaveListResponse(leaves []*LeaveRequest) LeaveListResponse {
	if leaves == nil {
		leaves = []*LeaveRequest{}
	}
	return LeaveListResponse{Leaves: leaves, Count: len(leaves)}
}

type StatusChangeResponse struct {
	ID     int64       `json:"id"`
	Status LeaveStatus `json:"status"`
}
