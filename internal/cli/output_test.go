package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/ski-status/internal/aggregator"
	"github.com/pfrederiksen/ski-status/internal/resort"
)

var jst = time.FixedZone("JST", 9*60*60)

func sampleOutput() *OutputResult {
	fetched := time.Date(2026, 1, 10, 0, 30, 0, 0, time.UTC)
	results := []resort.ExtractionResult{
		{
			ResortID: "getokogen", Name: "夏油高原", URL: "https://www.getokogen.com/",
			Status: resort.StatusFullyOpen, SnowDepthCM: resort.IntPtr(180),
			OpenCourses: resort.IntPtr(14), TotalCourses: 14,
			FetchedAt: fetched, Strategy: "site:labeled_cell", Excerpt: "積雪180cm全面滑走可",
		},
		{
			ResortID: "kyowa", Name: "協和", URL: "https://kyowasnow.net/",
			Status: resort.StatusFetchError, FetchedAt: fetched, Error: "fetch timed out",
		},
	}
	return &OutputResult{
		CheckedAt: fetched,
		Filter:    "No active filters",
		Summary:   aggregator.Summarize(results),
		Resorts:   results,
	}
}

func TestWriteOutput_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, sampleOutput(), FormatText, false, jst); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"夏油高原: ✅ 全面可 | snow 180cm | courses 14/14",
		"協和: 未取得 | snow unknown | courses unknown",
		"Total: 2 resorts (open 1, closed 0, unknown 0, failed 1)",
		"Checked at 2026-01-10 09:30 JST",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Excerpt:") {
		t.Error("non-verbose output contains excerpt")
	}
}

func TestWriteOutput_TextVerbose(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, sampleOutput(), FormatText, true, jst); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Strategy: site:labeled_cell",
		"Excerpt: 積雪180cm全面滑走可",
		"Error: fetch timed out",
		"Fetched: 2026-01-10 09:30 JST",
		"Filter: No active filters",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("verbose output missing %q", want)
		}
	}
}

func TestWriteOutput_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	result := &OutputResult{CheckedAt: time.Now()}
	if err := WriteOutput(&buf, result, FormatText, false, nil); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No resorts match.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, sampleOutput(), FormatJSON, false, jst); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}

	var decoded struct {
		Summary aggregator.Summary       `json:"summary"`
		Resorts []map[string]interface{} `json:"resorts"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Summary.Failed != 1 || len(decoded.Resorts) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if v, ok := decoded.Resorts[1]["snow_depth_cm"]; !ok || v != nil {
		t.Errorf("snow_depth_cm = %v (present %v), want null", v, ok)
	}
	if v := decoded.Resorts[0]["open_course_count"]; v != float64(14) {
		t.Errorf("open_course_count = %v, want 14", v)
	}
}

func TestWriteOutput_JSONEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, &OutputResult{}, FormatJSON, false, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"resorts": []`) {
		t.Errorf("output = %s, want empty resorts array", buf.String())
	}
}

func TestWriteOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, sampleOutput(), FormatTable, true, jst); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"RESORT", "STATUS", "夏油高原", "180cm", "14/14", "fetch timed out", "site:labeled_cell"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q\n%s", want, out)
		}
	}
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	if err := WriteOutput(&bytes.Buffer{}, sampleOutput(), OutputFormat("xml"), false, nil); err == nil {
		t.Error("WriteOutput() error = nil, want error for unknown format")
	}
}
