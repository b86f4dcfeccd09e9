package leave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateLeaveDTO) (*LeaveRequest, error)
	GetByUser(ctx context.Context, userID string) []*LeaveRequest
	GetByID(ctx context.Context, id int64) (*LeaveRequest, error)
	GetPending(ctx context.Context) ([]*LeaveRequest, error)
	GetAll(ctx context.Context) ([]*LeaveRequest, error)
	Approve(ctx context.Context, id int64, approverID string) error
	Reject(ctx context.Context, id int64, approverID, reason string) error
	Summary(ctx context.Context, userID string, manager bool) (*LeaveSummary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service     ServiceAPI
	ManagerRole string
	Workbook    func(w io.Writer, requests []*LeaveRequest) error
}

func NewHandler(base *transport.BaseHandler, service ServiceAPI, managerRole string) *Handler {
	if managerRole == "" {
		managerRole = auth.RoleManager
	}
	return &Handler{
		BaseHandler: base,
		Service:     service,
		ManagerRole: managerRole,
		Workbook:    WriteWorkbook,
	}
}

func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var body CreateLeaveRequest
	if err := h.DecodeJSON(r, &body); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	dto, err := body.ToDTO(identity.UserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	created, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetMyLeaves(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	h.WriteJSON(w, http.StatusOK, NewLeaveListResponse(h.Service.GetByUser(r.Context(), identity.UserID)))
}

// GetLeave is visible to the owner and to managers.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	id, ok := h.leaveID(w, r)
	if !ok {
		return
	}

	req, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if req == nil {
		h.HandleServiceError(w, ErrLeaveNotFound)
		return
	}

	if !req.IsOwnedBy(identity.UserID) && !identity.HasRole(h.ManagerRole) {
		h.Logger.Warn("GetLeave: access denied", "leave_id", id, "user_id", identity.UserID)
		h.HandleServiceError(w, ErrUnauthorizedAccess)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

// GetSummary scopes the counts to the caller unless the caller is a manager.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	summary, err := h.Service.Summary(r.Context(), identity.UserID, identity.HasRole(h.ManagerRole))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetAllLeaves(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, NewLeaveListResponse(leaves))
}

func (h *Handler) GetPendingLeaves(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.Service.GetPending(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, NewLeaveListResponse(leaves))
}

func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	id, ok := h.leaveID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Approve(r.Context(), id, identity.UserID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, StatusChangeResponse{ID: id, Status: StatusApproved})
}

// RejectLeave accepts an optional {"reason": "..."} body.
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	id, ok := h.leaveID(w, r)
	if !ok {
		return
	}

	var body RejectLeaveRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			h.HandleServiceError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
			return
		}
	}

	if err := h.Service.Reject(r.Context(), id, identity.UserID, body.Reason); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, StatusChangeResponse{ID: id, Status: StatusRejected})
}

// ExportLeaves renders the whole workbook before answering, so a failed
// render is a 500 rather than a truncated download.
func (h *Handler) ExportLeaves(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.Workbook(&buf, leaves); err != nil {
		h.Logger.Error("ExportLeaves: failed to render workbook", "error", err, "count", len(leaves))
		h.HandleServiceError(w, internal.NewInternalError("failed to export leave requests", err))
		return
	}

	filename := fmt.Sprintf("leave-requests-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Warn("ExportLeaves: client went away during download", "error", err)
	}
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrMissingToken)
		return nil, false
	}
	return identity, true
}

func (h *Handler) leaveID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.HandleServiceError(w, internal.NewValidationFieldError("id", "leave id must be a positive integer", internal.ErrCodeInvalidLeaveID))
		return 0, false
	}
	return id, true
}
