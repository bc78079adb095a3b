package strategy

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/ski-status/internal/resort"
	"github.com/pfrederiksen/ski-status/internal/textnorm"
)

// Site kinds
const (
	KindLabeledCell    = "labeled_cell"
	KindDefinitionList = "definition_list"
	KindScoped         = "scoped"
)

// Partial is what a strategy found on a page. Nil fields were not found.
type Partial struct {
	SnowDepthCM *int
	Status      *resort.Status
	OpenCourses *int
}

// Empty reports whether nothing was found.
func (p Partial) Empty() bool {
	return p.SnowDepthCM == nil && p.Status == nil && p.OpenCourses == nil
}

// Site is an extraction routine tuned to one resort's page structure.
// When its structural assumption does not hold it returns an empty Partial.
type Site interface {
	Kind() string
	Extract(page *textnorm.Page) Partial
}

// Labels names the label text a structural strategy looks for. An empty label
// skips that field.
type Labels struct {
	Snow    string
	Status  string
	Courses string
}

// LabeledCell reads values from the table cell following a label cell
type LabeledCell struct {
	Labels
}

func (LabeledCell) Kind() string { return KindLabeledCell }

func (c LabeledCell) Extract(page *textnorm.Page) Partial {
	return c.Labels.extract(func(label string) (string, bool) {
		return followingValue(page, "th, td", "th, td", label)
	})
}

// DefinitionList reads values from the dd following a dt term
type DefinitionList struct {
	Labels
}

func (DefinitionList) Kind() string { return KindDefinitionList }

func (d DefinitionList) Extract(page *textnorm.Page) Partial {
	return d.Labels.extract(func(label string) (string, bool) {
		return followingValue(page, "dt", "dd", label)
	})
}

// Scoped applies the generic rules to the first element matching Selector
// only, e.g. a status box that is more reliable than the rest of the page.
type Scoped struct {
	Selector string
}

func (Scoped) Kind() string { return KindScoped }

func (s Scoped) Extract(page *textnorm.Page) Partial {
	if page == nil || page.Doc == nil || s.Selector == "" {
		return Partial{}
	}
	text := textnorm.SelectionText(page.Doc.Find(s.Selector).First())
	if text == "" {
		return Partial{}
	}

	out := Partial{
		SnowDepthCM: SnowDepth(text),
		OpenCourses: courseCount(text, 0),
	}
	if status := Classify(text); status != resort.StatusUnknown {
		out.Status = &status
	}
	return out
}

func (l Labels) extract(lookup func(label string) (string, bool)) Partial {
	var out Partial
	if l.Snow != "" {
		if v, ok := lookup(l.Snow); ok {
			out.SnowDepthCM = parseDepth(v)
		}
	}
	if l.Status != "" {
		if v, ok := lookup(l.Status); ok {
			if status := Classify(v); status != resort.StatusUnknown {
				out.Status = &status
			}
		}
	}
	if l.Courses != "" {
		if v, ok := lookup(l.Courses); ok {
			out.OpenCourses = parseCount(v)
		}
	}
	return out
}

// followingValue finds the first leaf element matching labelSel whose text
// starts with label and returns the text of its next sibling matching valueSel.
func followingValue(page *textnorm.Page, labelSel, valueSel, label string) (string, bool) {
	if page == nil || page.Doc == nil {
		return "", false
	}
	label = textnorm.Collapse(label)

	var (
		value string
		found bool
	)
	page.Doc.Find(labelSel).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		// Skip containers such as a td wrapping a nested table
		if sel.Find(labelSel).Length() > 0 {
			return true
		}
		if !strings.HasPrefix(textnorm.SelectionText(sel), label) {
			return true
		}
		next := sel.NextFiltered(valueSel)
		if next.Length() == 0 {
			return true
		}
		value = textnorm.SelectionText(next)
		found = value != ""
		return !found
	})
	return value, found
}

// SiteSpec is the declarative form of a Site, as written in configuration
type SiteSpec struct {
	Kind     string
	Selector string
	Labels   Labels
}

// NewSite builds a Site from its declarative form.
func NewSite(spec SiteSpec) (Site, error) {
	switch spec.Kind {
	case KindLabeledCell:
		if spec.Labels == (Labels{}) {
			return nil, fmt.Errorf("%s strategy needs at least one label", spec.Kind)
		}
		return LabeledCell{Labels: spec.Labels}, nil
	case KindDefinitionList:
		if spec.Labels == (Labels{}) {
			return nil, fmt.Errorf("%s strategy needs at least one label", spec.Kind)
		}
		return DefinitionList{Labels: spec.Labels}, nil
	case KindScoped:
		if spec.Selector == "" {
			return nil, fmt.Errorf("%s strategy needs a selector", spec.Kind)
		}
		if _, err := compileSelector(spec.Selector); err != nil {
			return nil, err
		}
		return Scoped{Selector: spec.Selector}, nil
	default:
		return nil, fmt.Errorf("unknown strategy kind: %q", spec.Kind)
	}
}
