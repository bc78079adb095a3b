package resort

import (
	"strconv"
	"time"
)

// Change kinds
const (
	ChangeNew         = "new"
	ChangeStatus      = "status"
	ChangeSnowDepth   = "snow_depth"
	ChangeOpenCourses = "open_courses"
)

// Change records one value that differs between two passes
type Change struct {
	ResortID   string    `json:"resort_id"`
	Name       string    `json:"name"`
	ChangeType string    `json:"change_type"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// DetectChanges compares two results for the same resort. A nil previous
// result yields a single "new" change.
func DetectChanges(previous *ExtractionResult, current ExtractionResult, at time.Time) []Change {
	change := func(kind, oldValue, newValue string) Change {
		return Change{
			ResortID:   current.ResortID,
			Name:       current.Name,
			ChangeType: kind,
			OldValue:   oldValue,
			NewValue:   newValue,
			DetectedAt: at,
		}
	}

	if previous == nil {
		return []Change{change(ChangeNew, "", string(current.Status))}
	}

	var changes []Change
	if previous.Status != current.Status {
		changes = append(changes, change(ChangeStatus, string(previous.Status), string(current.Status)))
	}
	if optional(previous.SnowDepthCM) != optional(current.SnowDepthCM) {
		changes = append(changes, change(ChangeSnowDepth, optional(previous.SnowDepthCM), optional(current.SnowDepthCM)))
	}
	if optional(previous.OpenCourses) != optional(current.OpenCourses) {
		changes = append(changes, change(ChangeOpenCourses, optional(previous.OpenCourses), optional(current.OpenCourses)))
	}
	return changes
}

// Diff compares two passes by resort ID. Resorts missing from current are
// ignored.
func Diff(previous, current []ExtractionResult, at time.Time) []Change {
	byID := make(map[string]*ExtractionResult, len(previous))
	for i := range previous {
		byID[previous[i].ResortID] = &previous[i]
	}

	var changes []Change
	for _, r := range current {
		changes = append(changes, DetectChanges(byID[r.ResortID], r, at)...)
	}
	return changes
}

func optional(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
