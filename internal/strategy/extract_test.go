package strategy

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pfrederiksen/ski-status/internal/resort"
	"github.com/pfrederiksen/ski-status/internal/textnorm"
)

var fetchedAt = time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

func TestExtract_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		total int
		want  resort.ExtractionResult
	}{
		{
			name:  "summit depth and fully open",
			body:  "<p>山頂120cm 全面滑走可</p>",
			total: 10,
			want: resort.ExtractionResult{
				SnowDepthCM: resort.IntPtr(120),
				Status:      resort.StatusFullyOpen,
				OpenCourses: resort.IntPtr(10),
			},
		},
		{
			name:  "preparing",
			body:  "<p>準備中</p>",
			total: 5,
			want: resort.ExtractionResult{
				Status:      resort.StatusPreparing,
				OpenCourses: resort.IntPtr(0),
			},
		},
		{
			name:  "fully open with fourteen courses",
			body:  "<div>本日は全面滑走可です</div>",
			total: 14,
			want: resort.ExtractionResult{
				Status:      resort.StatusFullyOpen,
				OpenCourses: resort.IntPtr(14),
			},
		},
		{
			name:  "closed overrides stray count",
			body:  "<div>積雪30cm 本日クローズ 5コース滑走可</div>",
			total: 8,
			want: resort.ExtractionResult{
				SnowDepthCM: resort.IntPtr(30),
				Status:      resort.StatusClosed,
				OpenCourses: resort.IntPtr(0),
			},
		},
		{
			name:  "partial with count",
			body:  "<div>積雪：８０ｃｍ</div><div>一部滑走可（4コース滑走可）</div>",
			total: 8,
			want: resort.ExtractionResult{
				SnowDepthCM: resort.IntPtr(80),
				Status:      resort.StatusPartiallyOpen,
				OpenCourses: resort.IntPtr(4),
			},
		},
		{
			name:  "nothing recognizable",
			body:  "<h1>ようこそ</h1>",
			total: 8,
			want: resort.ExtractionResult{
				Status: resort.StatusUnknown,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := resort.Source{ID: "test", URL: "https://example.com", TotalCourses: tt.total}
			got := Extract(textnorm.Normalize(tt.body), src, nil, fetchedAt)

			want := tt.want
			want.ResortID = "test"
			want.Name = "test"
			want.URL = "https://example.com"
			want.TotalCourses = tt.total
			want.FetchedAt = fetchedAt
			want.Strategy = Generic

			if diff := cmp.Diff(want, got, cmp.FilterPath(isExcerpt, cmp.Ignore())); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_SitePrecedence(t *testing.T) {
	page := textnorm.Normalize(cellPage)
	src := resort.Source{ID: "getokogen", TotalCourses: 12}

	got := Extract(page, src, LabeledCell{Labels{Snow: "積雪", Status: "営業状況", Courses: "滑走可能コース"}}, fetchedAt)

	// The generic rules alone would read the old "全面滑走可" notice.
	if got.Status != resort.StatusPartiallyOpen {
		t.Errorf("Status = %s, want %s", got.Status, resort.StatusPartiallyOpen)
	}
	if !equalPtr(got.OpenCourses, resort.IntPtr(6)) {
		t.Errorf("OpenCourses = %v, want 6", deref(got.OpenCourses))
	}
	if got.Strategy != "site:"+KindLabeledCell {
		t.Errorf("Strategy = %q", got.Strategy)
	}

	generic := Extract(page, src, nil, fetchedAt)
	if generic.Status != resort.StatusFullyOpen {
		t.Errorf("generic Status = %s, want %s", generic.Status, resort.StatusFullyOpen)
	}
}

func TestExtract_SiteFallsThrough(t *testing.T) {
	page := textnorm.Normalize("<p>積雪45cm 営業中 2コースオープン</p>")
	src := resort.Source{ID: "tazawako", TotalCourses: 13}

	got := Extract(page, src, DefinitionList{Labels{Snow: "積雪", Status: "営業状況"}}, fetchedAt)

	if got.Strategy != Generic {
		t.Errorf("Strategy = %q, want %q", got.Strategy, Generic)
	}
	if !equalPtr(got.SnowDepthCM, resort.IntPtr(45)) {
		t.Errorf("SnowDepthCM = %v, want 45", deref(got.SnowDepthCM))
	}
	if got.Status != resort.StatusOperating {
		t.Errorf("Status = %s, want %s", got.Status, resort.StatusOperating)
	}
	if !equalPtr(got.OpenCourses, resort.IntPtr(2)) {
		t.Errorf("OpenCourses = %v, want 2", deref(got.OpenCourses))
	}
}

func TestExtract_Excerpt(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "雪"
	}
	got := Extract(textnorm.Normalize("<p>"+long+"</p>"), resort.Source{ID: "x"}, nil, fetchedAt)

	if n := len([]rune(got.Excerpt)); n != ExcerptLength {
		t.Errorf("excerpt length = %d, want %d", n, ExcerptLength)
	}
}

func isExcerpt(p cmp.Path) bool {
	return p.Last().String() == ".Excerpt"
}
