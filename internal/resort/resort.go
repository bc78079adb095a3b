package resort

import (
	"fmt"
	"time"
)

// MaxSnowDepthCM is the largest snow depth accepted as plausible.
const MaxSnowDepthCM = 600

// Status is the operating status of a resort
type Status string

const (
	StatusFullyOpen     Status = "fully_open"
	StatusPartiallyOpen Status = "partially_open"
	StatusOperating     Status = "operating"
	StatusPreparing     Status = "preparing"
	StatusClosed        Status = "closed"
	StatusUnknown       Status = "unknown"
	StatusFetchError    Status = "fetch_error"
)

// AllStatuses lists every status in classification priority order.
var AllStatuses = []Status{
	StatusFullyOpen,
	StatusPartiallyOpen,
	StatusOperating,
	StatusPreparing,
	StatusClosed,
	StatusUnknown,
	StatusFetchError,
}

// Label returns the dashboard label for the status.
func (s Status) Label() string {
	switch s {
	case StatusFullyOpen:
		return "✅ 全面可"
	case StatusPartiallyOpen:
		return "⚠️ 一部可"
	case StatusOperating:
		return "✅ 営業中"
	case StatusPreparing:
		return "⛔ 準備中"
	case StatusClosed:
		return "⛔ クローズ"
	case StatusFetchError:
		return "未取得"
	default:
		return "不明"
	}
}

// IsOpen reports whether skiing is possible in some form.
func (s Status) IsOpen() bool {
	return s == StatusFullyOpen || s == StatusPartiallyOpen || s == StatusOperating
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus converts a status name into a Status.
func ParseStatus(name string) (Status, error) {
	s := Status(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status: %s", name)
	}
	return s, nil
}

// Source identifies a resort page and its static facts
type Source struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	TotalCourses int    `json:"total_courses"` // 0 when not known
}

// HasTotal reports whether the total course count is known.
func (s Source) HasTotal() bool {
	return s.TotalCourses > 0
}

// DisplayName returns Name, falling back to ID.
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// ExtractionResult is the outcome of one extraction pass for one resort
type ExtractionResult struct {
	ResortID     string    `json:"resort_id"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	SnowDepthCM  *int      `json:"snow_depth_cm"`
	Status       Status    `json:"status"`
	OpenCourses  *int      `json:"open_course_count"`
	TotalCourses int       `json:"total_course_count"`
	FetchedAt    time.Time `json:"fetched_at"`
	Strategy     string    `json:"strategy,omitempty"` // "generic" or "site:<kind>"
	Excerpt      string    `json:"excerpt,omitempty"`  // start of the normalized page text
	Error        string    `json:"error,omitempty"`
}

// NewResult creates an empty result for src with status Unknown.
func NewResult(src Source, fetchedAt time.Time) ExtractionResult {
	return ExtractionResult{
		ResortID:     src.ID,
		Name:         src.DisplayName(),
		URL:          src.URL,
		Status:       StatusUnknown,
		TotalCourses: src.TotalCourses,
		FetchedAt:    fetchedAt,
	}
}

// FetchFailed creates the result for a source whose page could not be retrieved.
func FetchFailed(src Source, fetchedAt time.Time, err error) ExtractionResult {
	r := NewResult(src, fetchedAt)
	r.Status = StatusFetchError
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Finalize enforces the relationship between status and open-course count.
//
// FetchError clears every extracted value. FullyOpen means every course is open,
// Closed and Preparing mean none are. Any other count outside [0, total] is dropped.
func (r *ExtractionResult) Finalize() {
	switch r.Status {
	case StatusFetchError:
		r.SnowDepthCM = nil
		r.OpenCourses = nil
		return
	case StatusFullyOpen:
		if r.TotalCourses > 0 {
			r.OpenCourses = IntPtr(r.TotalCourses)
		} else {
			r.OpenCourses = nil
		}
	case StatusClosed, StatusPreparing:
		r.OpenCourses = IntPtr(0)
	default:
		if r.OpenCourses != nil {
			n := *r.OpenCourses
			if n < 0 || (r.TotalCourses > 0 && n > r.TotalCourses) {
				r.OpenCourses = nil
			}
		}
	}

	if r.SnowDepthCM != nil && !PlausibleDepth(*r.SnowDepthCM) {
		r.SnowDepthCM = nil
	}
}

// PlausibleDepth reports whether cm lies within [0, MaxSnowDepthCM].
func PlausibleDepth(cm int) bool {
	return cm >= 0 && cm <= MaxSnowDepthCM
}

// SnowDepthText renders the snow depth, or "unknown".
func (r ExtractionResult) SnowDepthText() string {
	if r.SnowDepthCM == nil {
		return "unknown"
	}
	return fmt.Sprintf("%dcm", *r.SnowDepthCM)
}

// OpenCoursesText renders the open-course count, or "unknown".
func (r ExtractionResult) OpenCoursesText() string {
	if r.OpenCourses == nil {
		return "unknown"
	}
	if r.TotalCourses > 0 {
		return fmt.Sprintf("%d/%d", *r.OpenCourses, r.TotalCourses)
	}
	return fmt.Sprintf("%d", *r.OpenCourses)
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
