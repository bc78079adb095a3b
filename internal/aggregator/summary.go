package aggregator

import "github.com/pfrederiksen/ski-status/internal/resort"

// Summary counts the outcomes of one pass
type Summary struct {
	Total   int `json:"total"`
	Open    int `json:"open"`
	Closed  int `json:"closed"` // closed or preparing
	Unknown int `json:"unknown"`
	Failed  int `json:"failed"`
}

// Summarize counts results by status.
func Summarize(results []resort.ExtractionResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Status == resort.StatusFetchError:
			s.Failed++
		case r.Status.IsOpen():
			s.Open++
		case r.Status == resort.StatusClosed, r.Status == resort.StatusPreparing:
			s.Closed++
		default:
			s.Unknown++
		}
	}
	return s
}

// HasFailures reports whether any source could not be fetched.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}
