package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var statusEmailHTML = template.Must(template.New("status").Parse(`<h2>Leave Request Update</h2>
<p>Your leave request has been <strong>{{.Status}}</strong>.</p>
<p><strong>Leave Type:</strong> {{.LeaveType}}</p>
<p><strong>Start Date:</strong> {{.StartDate}}</p>
<p><strong>End Date:</strong> {{.EndDate}}</p>
<p><strong>Status:</strong> {{.Status}}</p>
{{- if .Reason}}
<p><strong>Reason:</strong> {{.Reason}}</p>
{{- end}}
<p>Thank you!</p>
`))

// StatusMessage is the content of a leave decision e-mail.
type StatusMessage struct {
	LeaveType string
	StartDate time.Time
	EndDate   time.Time
	Status    string
	Reason    string
}

// BuildStatusEmail renders the subject and both bodies for address.
func BuildStatusEmail(address string, msg StatusMessage) (Email, error) {
	view := struct {
		LeaveType, StartDate, EndDate, Status, Reason string
	}{
		LeaveType: msg.LeaveType,
		StartDate: msg.StartDate.Format(dateLayout),
		EndDate:   msg.EndDate.Format(dateLayout),
		Status:    msg.Status,
		Reason:    strings.TrimSpace(msg.Reason),
	}

	var html bytes.Buffer
	if err := statusEmailHTML.Execute(&html, view); err != nil {
		return Email{}, fmt.Errorf("failed to render status email: %w", err)
	}

	plain := fmt.Sprintf("Your leave request has been %s.\nLeave Type: %s\nStart Date: %s\nEnd Date: %s\nStatus: %s\n",
		view.Status, view.LeaveType, view.StartDate, view.EndDate, view.Status)
	if view.Reason != "" {
		plain += fmt.Sprintf("Reason: %s\n", view.Reason)
	}

	return Email{
		ToAddress: address,
		Subject:   fmt.Sprintf("Leave Request %s - %s", view.Status, view.LeaveType),
		PlainText: plain,
		HTML:      html.String(),
	}, nil
}
