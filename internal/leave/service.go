package leave

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Repository is the request store. LoadAll is the only read primitive;
// TransitionStatus is a compare-and-set on the status column.
type Repository interface {
	Create(ctx context.Context, req *LeaveRequest) error
	LoadAll(ctx context.Context) ([]*LeaveRequest, error)
	GetByID(ctx context.Context, id int64) (*LeaveRequest, error)
	TransitionStatus(ctx context.Context, id int64, from, to LeaveStatus) (bool, error)
}

// StatusNotification carries the request as it was before the transition,
// plus the status it moved to.
type StatusNotification struct {
	LeaveID     int64
	RecipientID string
	ApproverID  string
	LeaveType   LeaveType
	StartDate   time.Time
	EndDate     time.Time
	Status      LeaveStatus
	Reason      string
}

// NotificationSender is best effort: its errors never undo a transition.
type NotificationSender interface {
	NotifyStatusChange(ctx context.Context, n StatusNotification) error
}

// Service handles the leave request lifecycle
type Service struct {
	repo     Repository
	notifier NotificationSender
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new leave service. notifier may be nil.
func NewService(repo Repository, notifier NotificationSender, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, dto CreateLeaveDTO) (*LeaveRequest, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("leave request validation failed", "error", err, "user_id", dto.UserID)
		return nil, err
	}

	req := NewLeaveRequest(dto, s.now())

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to create leave request", "error", err, "user_id", req.UserID)
		return nil, err
	}

	s.logger.Info("leave request created",
		"leave_id", req.ID,
		"user_id", req.UserID,
		"type", req.Type,
		"start_date", req.StartDate.Format(DateLayout),
		"end_date", req.EndDate.Format(DateLayout))

	return req, nil
}

// GetByUser never fails: a blank user id or a storage failure yields an
// empty list, logged.
func (s *Service) GetByUser(ctx context.Context, userID string) []*LeaveRequest {
	result := make([]*LeaveRequest, 0)

	userID = NormalizeUserID(userID)
	if userID == "" {
		s.logger.Warn("leave lookup requested without a user id")
		return result
	}

	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.logger.Error("failed to load leave requests for user", "error", err, "user_id", userID)
		return result
	}

	for _, req := range all {
		if req.UserID == userID {
			result = append(result, req)
		}
	}
	sortNewestFirst(result)

	s.logger.Debug("leave requests resolved for user", "user_id", userID, "count", len(result))
	return result
}

func (s *Service) GetByID(ctx context.Context, id int64) (*LeaveRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get leave request", "error", err, "leave_id", id)
		return nil, err
	}
	return req, nil
}

// GetPending returns pending requests, oldest first.
func (s *Service) GetPending(ctx context.Context) ([]*LeaveRequest, error) {
	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.logger.Error("failed to load pending leave requests", "error", err)
		return nil, err
	}

	pending := make([]*LeaveRequest, 0)
	for _, req := range all {
		if req.IsPending() {
			pending = append(pending, req)
		}
	}
	sortOldestFirst(pending)
	return pending, nil
}

// GetAll returns every request, newest first.
func (s *Service) GetAll(ctx context.Context) ([]*LeaveRequest, error) {
	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.logger.Error("failed to load leave requests", "error", err)
		return nil, err
	}
	if all == nil {
		all = make([]*LeaveRequest, 0)
	}
	sortNewestFirst(all)
	return all, nil
}

// Summary counts requests by status and picks a short list to act on.
// Managers see every request, with pending ones ordered by start date;
// everyone else sees their own requests, newest first.
func (s *Service) Summary(ctx context.Context, userID string, manager bool) (*LeaveSummary, error) {
	if !manager {
		mine := s.GetByUser(ctx, userID)
		summary := summarize(mine)
		summary.Recent = firstN(mine, employeeRecentLimit)
		return summary, nil
	}

	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.logger.Error("failed to load leave requests for summary", "error", err)
		return nil, err
	}

	summary := summarize(all)
	pending := make([]*LeaveRequest, 0)
	for _, req := range all {
		if req.IsPending() {
			pending = append(pending, req)
		}
	}
	sortByStartDate(pending)
	summary.Recent = firstN(pending, managerRecentLimit)
	return summary, nil
}

func (s *Service) Approve(ctx context.Context, id int64, approverID string) error {
	return s.transition(ctx, id, approverID, StatusApproved, "")
}

func (s *Service) Reject(ctx context.Context, id int64, approverID, reason string) error {
	return s.transition(ctx, id, approverID, StatusRejected, reason)
}

func (s *Service) transition(ctx context.Context, id int64, approverID string, target LeaveStatus, reason string) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load leave request for transition", "error", err, "leave_id", id, "target_status", target)
		return err
	}
	if current == nil {
		s.logger.Warn("transition requested for unknown leave request", "leave_id", id, "approver_id", approverID)
		return ErrLeaveNotFound
	}

	if !current.CanTransitionTo(target) {
		s.logger.Warn("leave request already decided",
			"leave_id", id,
			"current_status", current.Status,
			"target_status", target,
			"approver_id", approverID)
		return ErrLeaveAlreadyDecided
	}

	applied, err := s.repo.TransitionStatus(ctx, id, StatusPending, target)
	if err != nil {
		s.logger.Error("failed to transition leave request", "error", err, "leave_id", id, "target_status", target)
		return err
	}
	if !applied {
		s.logger.Warn("leave request transition lost a concurrent race",
			"leave_id", id,
			"target_status", target,
			"approver_id", approverID)
		return ErrTransitionConflict
	}

	s.logger.Info("leave request decided",
		"leave_id", id,
		"user_id", current.UserID,
		"status", target,
		"approver_id", approverID)

	s.notify(ctx, current, approverID, target, reason)
	return nil
}

func (s *Service) notify(ctx context.Context, req *LeaveRequest, approverID string, status LeaveStatus, reason string) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("leave status notification panicked", "panic", rec, "leave_id", req.ID)
		}
	}()

	err := s.notifier.NotifyStatusChange(ctx, StatusNotification{
		LeaveID:     req.ID,
		RecipientID: req.UserID,
		ApproverID:  approverID,
		LeaveType:   req.Type,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      status,
		Reason:      reason,
	})
	if err != nil {
		s.logger.Warn("leave status notification failed", "error", err, "leave_id", req.ID, "status", status)
	}
}

// Ties on CreatedAt fall back to ID so listings stay stable.
func sortNewestFirst(reqs []*LeaveRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		return reqs[i].ID > reqs[j].ID
	})
}

func sortByStartDate(reqs []*LeaveRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].StartDate.Equal(reqs[j].StartDate) {
			return reqs[i].StartDate.Before(reqs[j].StartDate)
		}
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
		}
		return reqs[i].ID < reqs[j].ID
	})
}

func sortOldestFirst(reqs []*LeaveRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
		}
		return reqs[i].ID < reqs[j].ID
	})
}
