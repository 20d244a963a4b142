// Package timeline synthesizes the tracking view's progress steps and SLA
// countdown from a complaint's registration time and status. Nothing here is
// stored; every call recomputes from the record and the supplied clock.
package timeline

import (
	"math"
	"time"

	"janseva/api/internal/complaint"
)

const (
	StepReceived   = "received"
	StepAssigned   = "assigned"
	StepInProgress = "in_progress"
	StepAction     = "action"
	StepResolved   = "resolved"

	criticalHours = 12.0
)

var (
	assignedAfter      = 45 * time.Minute
	investigationAfter = 2 * time.Hour
	actionAfter        = 24 * time.Hour
)

type Step struct {
	Status      string    `json:"status"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	// Expected marks a projected date for a step that has not happened.
	Expected  bool `json:"expected"`
	Completed bool `json:"completed"`
}

type Result struct {
	Timeline           []Step    `json:"timeline"`
	ExpectedResolution time.Time `json:"expectedResolution"`
	SLAElapsedHours    float64   `json:"slaElapsedHours"`
	SLARemainingHours  float64   `json:"slaRemainingHours"`
	SLAProgress        float64   `json:"slaProgress"`
	IsCritical         bool      `json:"isCritical"`
}

type Officer struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Phone       string `json:"phone"`
}

// DefaultOfficer is shown when no officer has been recorded for a complaint.
func DefaultOfficer(department complaint.Department) Officer {
	return Officer{
		Name:        "Officer Assigned",
		Designation: string(department) + " Department",
		Phone:       "+91 XXXXX XXXXX",
	}
}

// Synthesize derives the five-step timeline and SLA figures for record at now.
// Escalated records are treated like Pending ones: only In Progress and
// Resolved advance the timeline past assignment.
func Synthesize(record complaint.Record, now time.Time) Result {
	registered := record.RegisteredDate
	expected := registered.Add(complaint.SLAWindow)
	window := complaint.SLAWindow.Hours()

	// A registration date ahead of the server clock reads as a fresh complaint.
	remaining := math.Min(window, math.Max(0, expected.Sub(now).Hours()))
	elapsed := math.Min(window, window-remaining)

	// The critical flag follows the reported (rounded) hours.
	remainingHours := round1(remaining)
	return Result{
		Timeline:           steps(record, now),
		ExpectedResolution: expected,
		SLAElapsedHours:    round1(elapsed),
		SLARemainingHours:  remainingHours,
		SLAProgress:        round1(elapsed / window * 100),
		IsCritical:         remainingHours <= criticalHours,
	}
}

func steps(record complaint.Record, now time.Time) []Step {
	registered := record.RegisteredDate
	investigating := record.Status == complaint.StatusInProgress || record.Status == complaint.StatusResolved
	resolved := record.Status == complaint.StatusResolved

	timeline := []Step{
		{
			Status:      StepReceived,
			Title:       "Complaint Received",
			Description: "Your complaint has been registered successfully",
			Date:        registered,
			Completed:   true,
		},
		{
			Status:      StepAssigned,
			Title:       "Assigned to Officer",
			Description: "Assigned to " + string(record.Department),
			Date:        registered.Add(assignedAfter),
			Completed:   true,
		},
		{
			Status:      StepInProgress,
			Title:       "Under Investigation",
			Description: "Officer is investigating the issue",
			Date:        registered.Add(investigationAfter),
			Expected:    !investigating,
			Completed:   investigating,
		},
	}

	if resolved {
		return append(timeline,
			Step{
				Status:      StepAction,
				Title:       "Action Taken",
				Description: "Field team deployed and action initiated",
				Date:        registered.Add(actionAfter),
				Completed:   true,
			},
			Step{
				Status:      StepResolved,
				Title:       "Resolved",
				Description: "Issue resolved and verified",
				Date:        now,
				Completed:   true,
			},
		)
	}
	return append(timeline,
		Step{
			Status:      StepAction,
			Title:       "Action Pending",
			Description: "Awaiting field team deployment",
			Date:        registered.Add(actionAfter),
			Expected:    true,
		},
		Step{
			Status:      StepResolved,
			Title:       "Resolution",
			Description: "Issue resolution and verification pending",
			Date:        registered.Add(complaint.SLAWindow),
			Expected:    true,
		},
	)
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
