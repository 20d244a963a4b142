package complaint

import "time"

// Seed returns the demo complaints shown when a profile has nothing stored.
// A fresh slice is returned on every call.
func Seed() []Record {
	day := func(value string) time.Time {
		t, _ := time.Parse("2006-01-02", value)
		return t
	}
	return []Record{
		{
			ID:             "2025-12346",
			Subject:        "Water leakage in main pipeline",
			Department:     DeptWaterSupply,
			Status:         StatusInProgress,
			RegisteredDate: day("2025-01-28"),
			Progress:       65,
			Priority:       PriorityHigh,
			Location:       "Main Road, Ward Complex",
			Attachments:    []Attachment{},
		},
		{
			ID:             "2025-12345",
			Subject:        "Pothole on main road near market",
			Department:     DeptRoadsTraffic,
			Status:         StatusResolved,
			RegisteredDate: day("2025-01-25"),
			Progress:       100,
			Priority:       PriorityMedium,
			Location:       "Market Area, Near Junction",
			Attachments:    []Attachment{},
		},
		{
			ID:             "2025-12344",
			Subject:        "Street light not working for 2 months",
			Department:     DeptMunicipalServices,
			Status:         StatusResolved,
			RegisteredDate: day("2025-01-20"),
			Progress:       100,
			Priority:       PriorityLow,
			Location:       "City Center Road",
			Attachments:    []Attachment{},
		},
		{
			ID:             "2025-12343",
			Subject:        "Noise pollution from construction site",
			Department:     DeptEnvironment,
			Status:         StatusEscalated,
			RegisteredDate: day("2025-01-15"),
			Progress:       45,
			Priority:       PriorityHigh,
			Location:       "Construction Zone",
			Attachments:    []Attachment{},
		},
	}
}
