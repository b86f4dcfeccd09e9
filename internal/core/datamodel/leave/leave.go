package leave

import "time"

// LeaveRequest is the persisted shape of a leave request. Type and Status hold
// enum names, never ordinals.
type LeaveRequest struct {
	ID            int64     `gorm:"primaryKey"`
	UserID        string    `gorm:"column:user_id;not null;index"`
	StartDate     time.Time `gorm:"column:start_date;type:date;not null"`
	EndDate       time.Time `gorm:"column:end_date;type:date;not null"`
	Type          string    `gorm:"column:type;size:20;not null"`
	Reason        *string   `gorm:"column:reason;size:1000"`
	Status        string    `gorm:"column:status;size:20;not null;index"`
	AttachmentURL *string   `gorm:"column:attachment_url"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}
