package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/ski-status/internal/resort"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByInput  SortOrder = "input"
	SortByName   SortOrder = "name"
	SortBySnow   SortOrder = "snow"
	SortByStatus SortOrder = "status"
)

// Valid reports whether o is a known sort order.
func (o SortOrder) Valid() bool {
	switch o {
	case SortByInput, SortByName, SortBySnow, SortByStatus:
		return true
	}
	return false
}

// sortResults sorts results in place. Ties keep their input order.
func sortResults(results []resort.ExtractionResult, order SortOrder) {
	switch order {
	case SortByName:
		sort.SliceStable(results, func(i, j int) bool {
			return strings.ToLower(results[i].Name) < strings.ToLower(results[j].Name)
		})
	case SortBySnow:
		sort.SliceStable(results, func(i, j int) bool {
			return compareBySnow(results[i], results[j])
		})
	case SortByStatus:
		sort.SliceStable(results, func(i, j int) bool {
			ri, rj := statusRank(results[i].Status), statusRank(results[j].Status)
			if ri != rj {
				return ri < rj
			}
			// Same status: deeper snow first
			return compareBySnow(results[i], results[j])
		})
	}
}

// compareBySnow puts deeper snow first and unknown depths last
func compareBySnow(i, j resort.ExtractionResult) bool {
	if i.SnowDepthCM != nil && j.SnowDepthCM != nil {
		return *i.SnowDepthCM > *j.SnowDepthCM
	}
	return i.SnowDepthCM != nil && j.SnowDepthCM == nil
}

func statusRank(s resort.Status) int {
	for i, known := range resort.AllStatuses {
		if s == known {
			return i
		}
	}
	return len(resort.AllStatuses)
}
