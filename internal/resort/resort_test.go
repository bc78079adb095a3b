package resort

import (
	"errors"
	"testing"
	"time"
)

func TestFinalize(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		total    int
		snow     *int
		open     *int
		wantSnow *int
		wantOpen *int
	}{
		{
			name:     "fully open uses total",
			status:   StatusFullyOpen,
			total:    14,
			wantOpen: IntPtr(14),
		},
		{
			name:     "fully open overrides stray count",
			status:   StatusFullyOpen,
			total:    10,
			open:     IntPtr(3),
			wantOpen: IntPtr(10),
		},
		{
			name:     "fully open without total",
			status:   StatusFullyOpen,
			open:     IntPtr(3),
			wantOpen: nil,
		},
		{
			name:     "closed forces zero",
			status:   StatusClosed,
			total:    5,
			open:     IntPtr(4),
			wantOpen: IntPtr(0),
		},
		{
			name:     "preparing forces zero",
			status:   StatusPreparing,
			total:    5,
			wantOpen: IntPtr(0),
		},
		{
			name:     "count above total dropped",
			status:   StatusOperating,
			total:    5,
			open:     IntPtr(6),
			wantOpen: nil,
		},
		{
			name:     "count within total kept",
			status:   StatusPartiallyOpen,
			total:    5,
			open:     IntPtr(5),
			wantOpen: IntPtr(5),
		},
		{
			name:     "fetch error clears values",
			status:   StatusFetchError,
			total:    5,
			snow:     IntPtr(100),
			open:     IntPtr(2),
			wantSnow: nil,
			wantOpen: nil,
		},
		{
			name:     "implausible depth dropped",
			status:   StatusUnknown,
			snow:     IntPtr(601),
			wantSnow: nil,
		},
		{
			name:     "zero depth kept",
			status:   StatusUnknown,
			snow:     IntPtr(0),
			wantSnow: IntPtr(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ExtractionResult{
				Status:       tt.status,
				TotalCourses: tt.total,
				SnowDepthCM:  tt.snow,
				OpenCourses:  tt.open,
			}
			r.Finalize()

			if !equalPtr(r.OpenCourses, tt.wantOpen) {
				t.Errorf("OpenCourses = %v, want %v", deref(r.OpenCourses), deref(tt.wantOpen))
			}
			if !equalPtr(r.SnowDepthCM, tt.wantSnow) {
				t.Errorf("SnowDepthCM = %v, want %v", deref(r.SnowDepthCM), deref(tt.wantSnow))
			}
		})
	}
}

func TestFetchFailed(t *testing.T) {
	src := Source{ID: "opas", Name: "オーパス", URL: "http://example.com", TotalCourses: 3}
	at := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	r := FetchFailed(src, at, errors.New("timeout"))

	if r.Status != StatusFetchError {
		t.Errorf("Status = %s, want %s", r.Status, StatusFetchError)
	}
	if r.SnowDepthCM != nil || r.OpenCourses != nil {
		t.Error("fetch failure should leave depth and courses unset")
	}
	if r.Error != "timeout" {
		t.Errorf("Error = %q, want %q", r.Error, "timeout")
	}
	if !r.FetchedAt.Equal(at) {
		t.Errorf("FetchedAt = %v, want %v", r.FetchedAt, at)
	}
}

func TestStatusHelpers(t *testing.T) {
	open := map[Status]bool{
		StatusFullyOpen:     true,
		StatusPartiallyOpen: true,
		StatusOperating:     true,
		StatusPreparing:     false,
		StatusClosed:        false,
		StatusUnknown:       false,
		StatusFetchError:    false,
	}
	for s, want := range open {
		if got := s.IsOpen(); got != want {
			t.Errorf("%s.IsOpen() = %v, want %v", s, got, want)
		}
		if s.Label() == "" {
			t.Errorf("%s.Label() is empty", s)
		}
	}

	if _, err := ParseStatus("closed"); err != nil {
		t.Errorf("ParseStatus(closed) error = %v", err)
	}
	if _, err := ParseStatus("snowing"); err == nil {
		t.Error("ParseStatus(snowing) expected error")
	}
}

func TestDisplayText(t *testing.T) {
	r := ExtractionResult{TotalCourses: 10}
	if got := r.SnowDepthText(); got != "unknown" {
		t.Errorf("SnowDepthText() = %q, want unknown", got)
	}
	if got := r.OpenCoursesText(); got != "unknown" {
		t.Errorf("OpenCoursesText() = %q, want unknown", got)
	}

	r.SnowDepthCM = IntPtr(120)
	r.OpenCourses = IntPtr(7)
	if got := r.SnowDepthText(); got != "120cm" {
		t.Errorf("SnowDepthText() = %q, want 120cm", got)
	}
	if got := r.OpenCoursesText(); got != "7/10" {
		t.Errorf("OpenCoursesText() = %q, want 7/10", got)
	}
}

func equalPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
