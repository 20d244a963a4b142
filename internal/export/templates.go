package export

import (
	"bytes"
	"html/template"
	"time"

	"janseva/api/internal/complaint"
	"janseva/api/internal/timeline"
)

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(layout)
	},
	"kb": func(size int64) int64 {
		return (size + 1023) / 1024
	},
}).Parse(receiptHTML))

// ReceiptData holds everything printed on a complaint receipt.
type ReceiptData struct {
	Record      complaint.Record
	Tracking    timeline.Result
	Officer     timeline.Officer
	GeneratedAt time.Time
}

// RenderReceiptHTML renders the receipt template with provided data
func RenderReceiptHTML(data ReceiptData) (string, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const receiptHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Complaint #{{.Record.ID}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.5; max-width: 760px; margin: 2rem auto; color: #222; }
    h1 { border-bottom: 2px solid #1f3c88; padding-bottom: 0.5rem; }
    table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
    th { text-align: left; width: 30%; color: #555; }
    th, td { padding: 0.3rem 0.5rem; border-bottom: 1px solid #ddd; }
    .step { padding: 0.4rem 0; }
    .done { color: #1b7f3b; }
    .pending { color: #888; }
    .critical { color: #b3261e; font-weight: bold; }
  </style>
</head>
<body>
  <h1>Complaint #{{.Record.ID}}</h1>
  <table>
    <tr><th>Subject</th><td>{{.Record.Subject}}</td></tr>
    <tr><th>Department</th><td>{{.Record.Department}}</td></tr>
    <tr><th>Status</th><td>{{.Record.Status}}</td></tr>
    {{if .Record.Priority}}<tr><th>Priority</th><td>{{.Record.Priority}}</td></tr>{{end}}
    <tr><th>Registered</th><td>{{formatDate .Record.RegisteredDate "02 Jan 2006 15:04"}}</td></tr>
    <tr><th>Location</th><td>{{.Record.Location}}</td></tr>
    {{if .Record.SubmittedBy}}<tr><th>Submitted by</th><td>{{.Record.SubmittedBy}}</td></tr>{{end}}
    <tr><th>Progress</th><td>{{.Record.Progress}}%</td></tr>
  </table>
  {{if .Record.Description}}<p>{{.Record.Description}}</p>{{end}}

  <h2>Service level</h2>
  <p>Expected resolution {{formatDate .Tracking.ExpectedResolution "02 Jan 2006 15:04"}}.
  <span class="{{if .Tracking.IsCritical}}critical{{end}}">{{printf "%.1f" .Tracking.SLARemainingHours}} hours remaining</span>,
  {{printf "%.1f" .Tracking.SLAElapsedHours}} of 48 hours elapsed.</p>

  <h2>Assigned officer</h2>
  <p>{{.Officer.Name}}, {{.Officer.Designation}} ({{.Officer.Phone}})</p>

  <h2>Timeline</h2>
  {{range .Tracking.Timeline}}
  <div class="step {{if .Completed}}done{{else}}pending{{end}}">
    <strong>{{.Title}}</strong>: {{.Description}}
    ({{if .Expected}}Expected: {{formatDate .Date "02 Jan 2006"}}{{else}}{{formatDate .Date "02 Jan 2006 15:04"}}{{end}})
  </div>
  {{end}}

  {{if .Record.Attachments}}
  <h2>Attachments</h2>
  <ul>{{range .Record.Attachments}}<li>{{.Name}} ({{kb .Size}} KB)</li>{{end}}</ul>
  {{end}}

  <p style="color:#888;font-size:0.8em">Generated {{formatDate .GeneratedAt "02 Jan 2006 15:04 MST"}}</p>
</body>
</html>`
