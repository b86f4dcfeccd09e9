package leave

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ExportSheetName = "Leave Requests"
)

var exportHeader = []interface{}{
	"ID", "User", "Type", "Start Date", "End Date", "Status", "Reason", "Attachment", "Created At",
}

// WriteWorkbook renders requests, in the given order, as a single-sheet xlsx.
func WriteWorkbook(w io.Writer, requests []*LeaveRequest) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		return fmt.Errorf("failed to name export sheet: %w", err)
	}

	header := exportHeader
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for i, req := range requests {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			req.ID,
			req.UserID,
			string(req.Type),
			req.StartDate.Format(DateLayout),
			req.EndDate.Format(DateLayout),
			string(req.Status),
			valueOrEmpty(req.Reason),
			valueOrEmpty(req.AttachmentURL),
			req.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write export row %d: %w", req.ID, err)
		}
	}

	if err := f.SetColWidth(ExportSheetName, "B", "B", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(ExportSheetName, "G", "H", 40); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
