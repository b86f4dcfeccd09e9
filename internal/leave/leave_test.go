package leave_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal/leave"
)

var _ = Describe("NewLeaveRequest", func() {
	It("should keep created_at at microsecond precision", func() {
		// Given
		now := time.Date(2024, 5, 1, 9, 30, 15, 123456789, time.FixedZone("WIB", 7*60*60))

		// When
		req := leave.NewLeaveRequest(leave.CreateLeaveDTO{
			UserID:    " alice ",
			StartDate: date(2024, 6, 1),
			EndDate:   date(2024, 6, 2),
			Type:      "Sick",
		}, now)

		// Then
		Expect(req.CreatedAt).To(Equal(time.Date(2024, 5, 1, 2, 30, 15, 123456000, time.UTC)))
		Expect(req.UserID).To(Equal("alice"))
		Expect(req.Status).To(Equal(leave.StatusPending))
	})
})
