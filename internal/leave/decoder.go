package leave

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	DateLayout,
}

// DecodeError describes why a single row could not become a LeaveRequest.
type DecodeError struct {
	Column string
	Value  any
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("column %s: %s (got %T %v)", e.Column, e.Reason, e.Value, e.Value)
}

// DecodeRows converts raw rows, skipping and logging any row that cannot be
// decoded. It never fails the batch.
func DecodeRows(rows []map[string]any, logger *slog.Logger) ([]*LeaveRequest, int) {
	decoded := make([]*LeaveRequest, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		req, err := DecodeRow(row)
		if err != nil {
			skipped++
			logger.Warn("skipping undecodable leave request row",
				"error", err,
				"raw_id", fmt.Sprintf("%v", row["id"]))
			continue
		}
		decoded = append(decoded, req)
	}

	if skipped > 0 {
		logger.Warn("leave request rows skipped during decode", "skipped", skipped, "decoded", len(decoded))
	}
	return decoded, skipped
}

func DecodeRow(row map[string]any) (*LeaveRequest, error) {
	id, err := decodeID(row["id"])
	if err != nil {
		return nil, err
	}

	userID, err := decodeRequiredString("user_id", row["user_id"])
	if err != nil {
		return nil, err
	}

	startDate, err := decodeTime("start_date", row["start_date"])
	if err != nil {
		return nil, err
	}
	endDate, err := decodeTime("end_date", row["end_date"])
	if err != nil {
		return nil, err
	}

	typeName, err := decodeRequiredString("type", row["type"])
	if err != nil {
		return nil, err
	}
	leaveType, ok := ParseLeaveType(typeName)
	if !ok {
		return nil, &DecodeError{Column: "type", Value: typeName, Reason: "unknown leave type"}
	}

	statusName, err := decodeRequiredString("status", row["status"])
	if err != nil {
		return nil, err
	}
	status, ok := ParseLeaveStatus(statusName)
	if !ok {
		return nil, &DecodeError{Column: "status", Value: statusName, Reason: "unknown leave status"}
	}

	createdAt, err := decodeTime("created_at", row["created_at"])
	if err != nil {
		return nil, err
	}

	return &LeaveRequest{
		ID:            id,
		UserID:        userID,
		StartDate:     TruncateToDate(startDate),
		EndDate:       TruncateToDate(endDate),
		Type:          leaveType,
		Reason:        decodeOptionalString(row["reason"]),
		Status:        status,
		AttachmentURL: decodeOptionalString(row["attachment_url"]),
		CreatedAt:     createdAt.UTC(),
	}, nil
}

// decodeID accepts every integer width drivers hand back, plus numeric text
// from loosely typed columns.
func decodeID(value any) (int64, error) {
	var id int64

	switch v := value.(type) {
	case int64:
		id = v
	case int32:
		id = int64(v)
	case int:
		id = int64(v)
	case int16:
		id = int64(v)
	case int8:
		id = int64(v)
	case uint32:
		id = int64(v)
	case uint16:
		id = int64(v)
	case uint8:
		id = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, &DecodeError{Column: "id", Value: value, Reason: "out of range"}
		}
		id = int64(v)
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, &DecodeError{Column: "id", Value: value, Reason: "out of range"}
		}
		id = int64(v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, &DecodeError{Column: "id", Value: value, Reason: "not numeric"}
		}
		id = parsed
	case []byte:
		parsed, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return 0, &DecodeError{Column: "id", Value: string(v), Reason: "not numeric"}
		}
		id = parsed
	case nil:
		return 0, &DecodeError{Column: "id", Value: value, Reason: "missing"}
	default:
		return 0, &DecodeError{Column: "id", Value: value, Reason: "unsupported type"}
	}

	if id <= 0 {
		return 0, &DecodeError{Column: "id", Value: value, Reason: "must be positive"}
	}
	return id, nil
}

func decodeRequiredString(column string, value any) (string, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return "", &DecodeError{Column: column, Value: value, Reason: "missing"}
	default:
		return "", &DecodeError{Column: column, Value: value, Reason: "unsupported type"}
	}
	if s == "" {
		return "", &DecodeError{Column: column, Value: value, Reason: "empty"}
	}
	return s, nil
}

func decodeOptionalString(value any) *string {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

func decodeTime(column string, value any) (time.Time, error) {
	var s string
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, &DecodeError{Column: column, Value: value, Reason: "zero time"}
		}
		return v, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return time.Time{}, &DecodeError{Column: column, Value: value, Reason: "missing"}
	default:
		return time.Time{}, &DecodeError{Column: column, Value: value, Reason: "unsupported type"}
	}

	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DecodeError{Column: column, Value: s, Reason: "unrecognized time format"}
}
