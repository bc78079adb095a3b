// Package filter narrows extraction results for display.
//
// Criteria combine with AND; an empty filter matches everything:
//   - Open only (fully open, partially open or operating)
//   - Minimum snow depth in cm (results with unknown depth never match)
//   - Status set
//   - Resort IDs
//   - Resort names (substring matching, case-insensitive)
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.OpenOnly = true
//	f.MinSnowDepth = 50
//
//	shown := f.Apply(results)
package filter

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/ski-status/internal/resort"
)

// Filter represents result filtering criteria
type Filter struct {
	OpenOnly bool `json:"open_only,omitempty"`

	// Minimum snow depth in cm, 0 disables
	MinSnowDepth int `json:"min_snow_depth,omitempty"`

	Statuses []resort.Status `json:"statuses,omitempty"`
	IDs      []string        `json:"ids,omitempty"`

	// Name filtering (case-insensitive substring match)
	Names []string `json:"names,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
func NewFilter() *Filter {
	return &Filter{
		Statuses: []resort.Status{},
		IDs:      []string{},
		Names:    []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f == nil || (!f.OpenOnly &&
		f.MinSnowDepth <= 0 &&
		len(f.Statuses) == 0 &&
		len(f.IDs) == 0 &&
		len(f.Names) == 0)
}

// Matches checks if a result passes all active criteria.
func (f *Filter) Matches(r resort.ExtractionResult) bool {
	if f.IsEmpty() {
		return true
	}

	if f.OpenOnly && !r.Status.IsOpen() {
		return false
	}

	if f.MinSnowDepth > 0 {
		if r.SnowDepthCM == nil || *r.SnowDepthCM < f.MinSnowDepth {
			return false
		}
	}

	if len(f.Statuses) > 0 {
		matched := false
		for _, s := range f.Statuses {
			if r.Status == s {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.IDs) > 0 {
		matched := false
		for _, id := range f.IDs {
			if strings.EqualFold(r.ResortID, id) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.Names) > 0 {
		matched := false
		nameLower := strings.ToLower(r.Name)
		for _, name := range f.Names {
			if strings.Contains(nameLower, strings.ToLower(name)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply returns the results that match, in their original order. An empty
// filter returns results unchanged.
func (f *Filter) Apply(results []resort.ExtractionResult) []resort.ExtractionResult {
	if f.IsEmpty() {
		return results
	}

	filtered := make([]resort.ExtractionResult, 0, len(results))
	for _, r := range results {
		if f.Matches(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// String returns a human-readable description of the active criteria.
// Format: "Open only | Snow >= 50cm | Status: closed, preparing"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.OpenOnly {
		parts = append(parts, "Open only")
	}

	if f.MinSnowDepth > 0 {
		parts = append(parts, fmt.Sprintf("Snow >= %dcm", f.MinSnowDepth))
	}

	if len(f.Statuses) > 0 {
		names := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			names[i] = string(s)
		}
		parts = append(parts, fmt.Sprintf("Status: %s", strings.Join(names, ", ")))
	}

	if len(f.IDs) > 0 {
		parts = append(parts, fmt.Sprintf("Resorts: %s", strings.Join(f.IDs, ", ")))
	}

	if len(f.Names) > 0 {
		parts = append(parts, fmt.Sprintf("Names: %s", strings.Join(f.Names, ", ")))
	}

	return strings.Join(parts, " | ")
}

// Clone creates a deep copy of the filter.
func (f *Filter) Clone() *Filter {
	clone := &Filter{
		OpenOnly:     f.OpenOnly,
		MinSnowDepth: f.MinSnowDepth,
		Statuses:     append([]resort.Status{}, f.Statuses...),
		IDs:          append([]string{}, f.IDs...),
		Names:        append([]string{}, f.Names...),
	}
	return clone
}
