package leave_test

import (
	"time"

	"github.com/frahmantamala/leave-management/internal/leave"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Row decoding", func() {
	validRow := func() map[string]any {
		return map[string]any{
			"id":             int64(12),
			"user_id":        "alice",
			"start_date":     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			"end_date":       "2024-06-05",
			"type":           "Personal",
			"reason":         []byte("Moving house"),
			"status":         "Pending",
			"attachment_url": nil,
			"created_at":     "2024-05-01 09:30:00+00:00",
		}
	}

	Describe("DecodeRow", func() {
		It("should decode a row with mixed driver types", func() {
			// When
			req, err := leave.DecodeRow(validRow())

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(req.ID).To(Equal(int64(12)))
			Expect(req.EndDate).To(Equal(date(2024, 6, 5)))
			Expect(req.Type).To(Equal(leave.LeaveTypePersonal))
			Expect(*req.Reason).To(Equal("Moving house"))
			Expect(req.AttachmentURL).To(BeNil())
			Expect(req.CreatedAt).To(BeTemporally("==", time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)))
		})

		DescribeTable("id column",
			func(value any, expected int64, ok bool) {
				row := validRow()
				row["id"] = value

				req, err := leave.DecodeRow(row)

				if ok {
					Expect(err).NotTo(HaveOccurred())
					Expect(req.ID).To(Equal(expected))
				} else {
					Expect(err).To(HaveOccurred())
					var decodeErr *leave.DecodeError
					Expect(err).To(BeAssignableToTypeOf(decodeErr))
				}
			},
			Entry("int32", int32(5), int64(5), true),
			Entry("int", 6, int64(6), true),
			Entry("uint8", uint8(7), int64(7), true),
			Entry("numeric text", " 8 ", int64(8), true),
			Entry("numeric bytes", []byte("9"), int64(9), true),
			Entry("zero", int64(0), int64(0), false),
			Entry("negative", int64(-1), int64(0), false),
			Entry("non numeric text", "abc", int64(0), false),
			Entry("float", 1.5, int64(0), false),
			Entry("missing", nil, int64(0), false),
			Entry("overflowing uint64", uint64(1<<63), int64(0), false),
		)

		It("should refuse an ordinal status", func() {
			row := validRow()
			row["status"] = int64(1)

			_, err := leave.DecodeRow(row)

			Expect(err).To(MatchError(ContainSubstring("status")))
		})

		It("should refuse an unknown leave type", func() {
			row := validRow()
			row["type"] = "vacation"

			_, err := leave.DecodeRow(row)

			Expect(err).To(MatchError(ContainSubstring("unknown leave type")))
		})

		It("should refuse an unparseable date", func() {
			row := validRow()
			row["start_date"] = "tomorrow"

			_, err := leave.DecodeRow(row)

			Expect(err).To(MatchError(ContainSubstring("start_date")))
		})

		It("should treat an empty reason as absent", func() {
			row := validRow()
			row["reason"] = ""

			req, err := leave.DecodeRow(row)

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Reason).To(BeNil())
		})
	})

	Describe("DecodeRows", func() {
		It("should skip bad rows and keep the order of good ones", func() {
			// Given
			second := validRow()
			second["id"] = int64(13)
			broken := validRow()
			broken["status"] = "Cancelled"

			// When
			decoded, skipped := leave.DecodeRows([]map[string]any{validRow(), broken, second}, testLogger())

			// Then
			Expect(skipped).To(Equal(1))
			Expect(decoded).To(HaveLen(2))
			Expect(decoded[0].ID).To(Equal(int64(12)))
			Expect(decoded[1].ID).To(Equal(int64(13)))
		})
	})
})
