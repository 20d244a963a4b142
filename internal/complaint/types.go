// Package complaint defines the canonical complaint record and the
// normalization applied wherever a record enters the system.
package complaint

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
	StatusEscalated  Status = "Escalated"
)

// Statuses lists every canonical status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusEscalated}

type Department string

const (
	DeptWaterSupply       Department = "Water Supply"
	DeptRoadsTraffic      Department = "Roads & Traffic"
	DeptMunicipalServices Department = "Municipal Services"
	DeptEnvironment       Department = "Environment"
	DeptElectricity       Department = "Electricity"
	DeptSanitation        Department = "Sanitation"
	DeptPublicSafety      Department = "Public Safety"
	DeptRevenue           Department = "Revenue"
	DeptOther             Department = "Other"
)

var Departments = []Department{
	DeptMunicipalServices,
	DeptWaterSupply,
	DeptElectricity,
	DeptRoadsTraffic,
	DeptSanitation,
	DeptEnvironment,
	DeptPublicSafety,
	DeptRevenue,
	DeptOther,
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

const (
	// InitialProgress is the progress assigned to a freshly registered complaint.
	InitialProgress = 15
	SLAWindow       = 48 * time.Hour
)

var ErrNotFound = errors.New("complaint not found")

// Attachment is file metadata only; file bytes are never persisted.
type Attachment struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Record struct {
	ID             string       `json:"id"`
	Subject        string       `json:"subject"`
	Department     Department   `json:"department"`
	Status         Status       `json:"status"`
	RegisteredDate time.Time    `json:"registeredDate"`
	Progress       int          `json:"progress"`
	Priority       Priority     `json:"priority,omitempty"`
	Description    string       `json:"description,omitempty"`
	Location       string       `json:"location"`
	SubmittedBy    string       `json:"submittedBy,omitempty"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Attachments    []Attachment `json:"attachments"`
}

// Feedback is a post-resolution satisfaction entry.
type Feedback struct {
	ID          string    `json:"id,omitempty"`
	ComplaintID string    `json:"complaintId"`
	Rating      int       `json:"rating"`
	Feedback    string    `json:"feedback"`
	SubmittedAt time.Time `json:"submittedAt"`
}
