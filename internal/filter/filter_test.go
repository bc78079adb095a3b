package filter

import (
	"testing"

	"github.com/pfrederiksen/ski-status/internal/resort"
)

func result(id, name string, status resort.Status, depth *int) resort.ExtractionResult {
	return resort.ExtractionResult{ResortID: id, Name: name, Status: status, SnowDepthCM: depth}
}

func TestFilter_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{
			name:   "empty filter",
			filter: NewFilter(),
			want:   true,
		},
		{
			name:   "nil filter",
			filter: nil,
			want:   true,
		},
		{
			name:   "open only",
			filter: &Filter{OpenOnly: true},
			want:   false,
		},
		{
			name:   "min snow",
			filter: &Filter{MinSnowDepth: 30},
			want:   false,
		},
		{
			name:   "statuses",
			filter: &Filter{Statuses: []resort.Status{resort.StatusClosed}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsEmpty(); got != tt.want {
				t.Errorf("Filter.IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	depth := func(n int) *int { return &n }

	tests := []struct {
		name   string
		filter *Filter
		result resort.ExtractionResult
		want   bool
	}{
		{
			name:   "empty filter matches all",
			filter: NewFilter(),
			result: result("a", "A", resort.StatusFetchError, nil),
			want:   true,
		},
		{
			name:   "open only keeps fully open",
			filter: &Filter{OpenOnly: true},
			result: result("a", "A", resort.StatusFullyOpen, nil),
			want:   true,
		},
		{
			name:   "open only keeps operating",
			filter: &Filter{OpenOnly: true},
			result: result("a", "A", resort.StatusOperating, nil),
			want:   true,
		},
		{
			name:   "open only drops preparing",
			filter: &Filter{OpenOnly: true},
			result: result("a", "A", resort.StatusPreparing, nil),
			want:   false,
		},
		{
			name:   "open only drops fetch error",
			filter: &Filter{OpenOnly: true},
			result: result("a", "A", resort.StatusFetchError, nil),
			want:   false,
		},
		{
			name:   "min snow met",
			filter: &Filter{MinSnowDepth: 50},
			result: result("a", "A", resort.StatusUnknown, depth(50)),
			want:   true,
		},
		{
			name:   "min snow not met",
			filter: &Filter{MinSnowDepth: 50},
			result: result("a", "A", resort.StatusUnknown, depth(49)),
			want:   false,
		},
		{
			name:   "min snow with unknown depth",
			filter: &Filter{MinSnowDepth: 1},
			result: result("a", "A", resort.StatusFullyOpen, nil),
			want:   false,
		},
		{
			name:   "status in set",
			filter: &Filter{Statuses: []resort.Status{resort.StatusClosed, resort.StatusPreparing}},
			result: result("a", "A", resort.StatusPreparing, nil),
			want:   true,
		},
		{
			name:   "status not in set",
			filter: &Filter{Statuses: []resort.Status{resort.StatusClosed}},
			result: result("a", "A", resort.StatusUnknown, nil),
			want:   false,
		},
		{
			name:   "id case-insensitive",
			filter: &Filter{IDs: []string{"OPAS"}},
			result: result("opas", "オーパス", resort.StatusUnknown, nil),
			want:   true,
		},
		{
			name:   "name substring",
			filter: &Filter{Names: []string{"八幡平"}},
			result: result("akihachi", "秋田八幡平", resort.StatusUnknown, nil),
			want:   true,
		},
		{
			name:   "all criteria must hold",
			filter: &Filter{OpenOnly: true, MinSnowDepth: 100},
			result: result("a", "A", resort.StatusFullyOpen, depth(80)),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.result); got != tt.want {
				t.Errorf("Filter.Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	results := []resort.ExtractionResult{
		result("a", "A", resort.StatusFullyOpen, nil),
		result("b", "B", resort.StatusClosed, nil),
		result("c", "C", resort.StatusPartiallyOpen, nil),
		result("d", "D", resort.StatusFetchError, nil),
	}

	t.Run("empty filter returns input", func(t *testing.T) {
		got := NewFilter().Apply(results)
		if len(got) != len(results) {
			t.Errorf("Apply() returned %d results, want %d", len(got), len(results))
		}
	})

	t.Run("open only keeps order", func(t *testing.T) {
		got := (&Filter{OpenOnly: true}).Apply(results)
		if len(got) != 2 || got[0].ResortID != "a" || got[1].ResortID != "c" {
			t.Errorf("Apply() = %v, want [a c]", ids(got))
		}
	})

	t.Run("nothing matches", func(t *testing.T) {
		got := (&Filter{IDs: []string{"zzz"}}).Apply(results)
		if len(got) != 0 {
			t.Errorf("Apply() = %v, want empty", ids(got))
		}
	})
}

func ids(results []resort.ExtractionResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ResortID
	}
	return out
}

func TestFilter_String(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		want   string
	}{
		{"empty", NewFilter(), "No active filters"},
		{"open only", &Filter{OpenOnly: true}, "Open only"},
		{
			"combined",
			&Filter{OpenOnly: true, MinSnowDepth: 50, Statuses: []resort.Status{resort.StatusFullyOpen}},
			"Open only | Snow >= 50cm | Status: fully_open",
		},
		{"ids", &Filter{IDs: []string{"opas", "aniski"}}, "Resorts: opas, aniski"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.String(); got != tt.want {
				t.Errorf("Filter.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilter_Clone(t *testing.T) {
	orig := &Filter{OpenOnly: true, IDs: []string{"a"}, Statuses: []resort.Status{resort.StatusClosed}}
	clone := orig.Clone()

	clone.IDs[0] = "b"
	clone.Statuses[0] = resort.StatusUnknown
	clone.OpenOnly = false

	if orig.IDs[0] != "a" || orig.Statuses[0] != resort.StatusClosed || !orig.OpenOnly {
		t.Errorf("modifying clone changed original: %+v", orig)
	}
}
