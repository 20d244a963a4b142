package complaint

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// wireRecord accepts every shape a complaint has been written in: the
// registration form wrote title/category/date while the tracking and
// history screens used subject/department/registeredDate.
type wireRecord struct {
	ID             string       `json:"id"`
	Subject        string       `json:"subject"`
	Title          string       `json:"title"`
	Department     string       `json:"department"`
	Category       string       `json:"category"`
	Status         string       `json:"status"`
	RegisteredDate string       `json:"registeredDate"`
	Date           string       `json:"date"`
	Progress       float64      `json:"progress"`
	Priority       string       `json:"priority"`
	Description    string       `json:"description"`
	Location       string       `json:"location"`
	SubmittedBy    string       `json:"submittedBy"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	Attachments    []Attachment `json:"attachments"`
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var wire wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	status, _ := ParseStatus(wire.Status)
	department, _ := ParseDepartment(firstNonBlank(wire.Department, wire.Category))
	priority, _ := ParsePriority(wire.Priority)
	*r = Normalize(Record{
		ID:             wire.ID,
		Subject:        firstNonBlank(wire.Subject, wire.Title),
		Department:     department,
		Status:         status,
		RegisteredDate: ParseTimestamp(firstNonBlank(wire.RegisteredDate, wire.Date)),
		Progress:       int(math.Round(wire.Progress)),
		Priority:       priority,
		Description:    wire.Description,
		Location:       wire.Location,
		SubmittedBy:    wire.SubmittedBy,
		Email:          wire.Email,
		Phone:          wire.Phone,
		Attachments:    wire.Attachments,
	})
	return nil
}

// Normalize returns r in canonical form. It never fails: unknown enum values
// fall back to Pending / Other / unranked.
func Normalize(r Record) Record {
	r.ID = strings.TrimPrefix(strings.TrimSpace(r.ID), "#")
	r.Subject = strings.TrimSpace(r.Subject)
	r.Location = strings.TrimSpace(r.Location)
	r.Description = strings.TrimSpace(r.Description)
	r.SubmittedBy = strings.TrimSpace(r.SubmittedBy)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)

	if s, ok := ParseStatus(string(r.Status)); ok {
		r.Status = s
	} else {
		r.Status = StatusPending
	}
	if d, ok := ParseDepartment(string(r.Department)); ok {
		r.Department = d
	} else {
		r.Department = DeptOther
	}
	r.Priority, _ = ParsePriority(string(r.Priority))

	if r.Progress < 0 {
		r.Progress = 0
	}
	if r.Progress > 100 {
		r.Progress = 100
	}
	if r.Attachments == nil {
		r.Attachments = []Attachment{}
	}
	if !r.RegisteredDate.IsZero() {
		r.RegisteredDate = r.RegisteredDate.UTC()
	}
	return r
}

// ParseStatus accepts canonical labels and the snake_case keys used by the
// history filters ("in_progress").
func ParseStatus(value string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	switch key {
	case "pending":
		return StatusPending, true
	case "in progress":
		return StatusInProgress, true
	case "resolved":
		return StatusResolved, true
	case "escalated":
		return StatusEscalated, true
	default:
		return "", false
	}
}

// Key returns the snake_case form of the status ("in_progress").
func (s Status) Key() string {
	return strings.ReplaceAll(strings.ToLower(string(s)), " ", "_")
}

func ParseDepartment(value string) (Department, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.ReplaceAll(key, " and ", " & ")
	for _, d := range Departments {
		if strings.ToLower(string(d)) == key {
			return d, true
		}
	}
	return "", false
}

func ParsePriority(value string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	default:
		return "", false
	}
}

// Rank orders priorities High < Medium < Low; unranked sorts last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 99
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses ISO timestamps and bare dates (taken as UTC
// midnight). Unparseable input yields the zero time.
func ParseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
