package aggregator

import (
	"testing"

	"github.com/pfrederiksen/ski-status/internal/resort"
)

func TestSummarize(t *testing.T) {
	statuses := []resort.Status{
		resort.StatusFullyOpen,
		resort.StatusPartiallyOpen,
		resort.StatusOperating,
		resort.StatusPreparing,
		resort.StatusClosed,
		resort.StatusUnknown,
		resort.StatusFetchError,
		resort.StatusFetchError,
	}
	var results []resort.ExtractionResult
	for _, s := range statuses {
		results = append(results, resort.ExtractionResult{Status: s})
	}

	got := Summarize(results)
	want := Summary{Total: 8, Open: 3, Closed: 2, Unknown: 1, Failed: 2}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
	if !got.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
	if (Summary{Total: 1, Open: 1}).HasFailures() {
		t.Error("HasFailures() = true for a clean pass")
	}
}
