package strategy

import (
	"time"

	"github.com/pfrederiksen/ski-status/internal/resort"
	"github.com/pfrederiksen/ski-status/internal/textnorm"
)

// ExcerptLength is the number of runes of page text kept on each result.
const ExcerptLength = 200

// Generic is the strategy label for results built from generic rules only.
const Generic = "generic"

// Extract builds the result for src from page. Fields found by site take
// priority; the rest fall through to the generic rules. The open-course count
// is resolved last because it depends on the settled status.
func Extract(page *textnorm.Page, src resort.Source, site Site, fetchedAt time.Time) resort.ExtractionResult {
	r := resort.NewResult(src, fetchedAt)
	r.Strategy = Generic
	r.Excerpt = page.Excerpt(ExcerptLength)

	var found Partial
	if site != nil {
		found = site.Extract(page)
		if !found.Empty() {
			r.Strategy = "site:" + site.Kind()
		}
	}

	if found.SnowDepthCM != nil {
		r.SnowDepthCM = found.SnowDepthCM
	} else {
		r.SnowDepthCM = SnowDepth(page.Flat)
	}

	if found.Status != nil {
		r.Status = *found.Status
	} else {
		r.Status = Classify(page.Flat)
	}

	if found.OpenCourses != nil {
		r.OpenCourses = found.OpenCourses
	} else {
		r.OpenCourses = OpenCourses(page.Flat, r.Status, src.TotalCourses)
	}

	r.Finalize()
	return r
}
