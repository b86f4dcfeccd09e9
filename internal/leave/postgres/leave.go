package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

const selectAllLeaveRequests = `
	SELECT id, user_id, start_date, end_date, type, reason, status, attachment_url, created_at
	FROM leave_requests
	ORDER BY created_at DESC, id DESC`

// LeaveRepository is the only code that touches the leave_requests table.
// Writes go through GORM; the full-table read goes through sqlx so rows can
// be decoded tolerantly from raw column values.
type LeaveRepository struct {
	db     *gorm.DB
	rawDB  *sqlx.DB
	logger *slog.Logger
}

// NewLeaveRepository shares db's connection pool with the raw sqlx handle.
func NewLeaveRepository(db *gorm.DB, logger *slog.Logger) (*LeaveRepository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}

	return &LeaveRepository{
		db:     db,
		rawDB:  sqlx.NewDb(sqlDB, sqlxDriverName(db.Dialector.Name())),
		logger: logger,
	}, nil
}

// sqlxDriverName maps a GORM dialect to the name sqlx uses for bind vars.
func sqlxDriverName(dialect string) string {
	switch dialect {
	case "sqlite":
		return "sqlite3"
	case "postgres":
		return "pgx"
	default:
		return dialect
	}
}

// Create inserts req and writes the generated id back onto it.
func (r *LeaveRepository) Create(ctx context.Context, req *leave.LeaveRequest) error {
	row := leave.ToDataModel(req)

	err := r.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		return internal.NewStorageError("failed to create leave request", err)
	}

	req.ID = row.ID
	return nil
}

// LoadAll reads every row newest first on a connection held only for this
// call. Rows that fail to decode are skipped and logged.
func (r *LeaveRepository) LoadAll(ctx context.Context) ([]*leave.LeaveRequest, error) {
	conn, err := r.rawDB.Connx(ctx)
	if err != nil {
		return nil, internal.NewStorageError("failed to acquire database connection", err)
	}
	defer conn.Close()

	rows, err := conn.QueryxContext(ctx, selectAllLeaveRequests)
	if err != nil {
		return nil, internal.NewStorageError("failed to query leave requests", err)
	}
	defer rows.Close()

	var raw []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, internal.NewStorageError("failed to scan leave request row", err)
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, internal.NewStorageError("failed to iterate leave requests", err)
	}

	requests, skipped := leave.DecodeRows(raw, r.logger)
	r.logger.Debug("leave requests loaded", "count", len(requests), "skipped", skipped)
	return requests, nil
}

// GetByID returns nil, nil when no decodable row carries id.
func (r *LeaveRepository) GetByID(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	all, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, req := range all {
		if req.ID == id {
			return req, nil
		}
	}
	return nil, nil
}

// TransitionStatus moves id from one status to another in a single guarded
// UPDATE. It reports false when the row was missing or no longer in from.
func (r *LeaveRepository) TransitionStatus(ctx context.Context, id int64, from, to leave.LeaveStatus) (bool, error) {
	var affected int64

	err := r.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		result := tx.Model(&leaveDatamodel.LeaveRequest{}).
			Where("id = ? AND status = ?", id, string(from)).
			Update("status", string(to))
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return false, internal.NewStorageError("failed to update leave request status", err)
	}

	return affected > 0, nil
}
