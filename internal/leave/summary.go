package leave

const (
	managerRecentLimit  = 20
	employeeRecentLimit = 10
)

// LeaveSummary backs the dashboard view.
type LeaveSummary struct {
	Total    int             `json:"total"`
	Approved int             `json:"approved"`
	Rejected int             `json:"rejected"`
	Pending  int             `json:"pending"`
	Recent   []*LeaveRequest `json:"recent"`
}

func summarize(reqs []*LeaveRequest) *LeaveSummary {
	summary := &LeaveSummary{Total: len(reqs)}
	for _, req := range reqs {
		switch req.Status {
		case StatusApproved:
			summary.Approved++
		case StatusRejected:
			summary.Rejected++
		case StatusPending:
			summary.Pending++
		}
	}
	return summary
}

func firstN(reqs []*LeaveRequest, n int) []*LeaveRequest {
	if len(reqs) > n {
		reqs = reqs[:n]
	}
	out := make([]*LeaveRequest, len(reqs))
	copy(out, reqs)
	return out
}
