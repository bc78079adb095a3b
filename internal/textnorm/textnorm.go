// Package textnorm turns raw resort page markup into the canonical search text
// the extraction rules are written against, while keeping a parsed document for
// structure-aware lookups.
//
// The canonical text is fully collapsed: every whitespace and control rune is
// removed, so "積雪 : 120 cm" and "積雪:120cm" normalize identically. Width
// variants are folded: full-width ASCII becomes ASCII and half-width katakana
// becomes full-width.
package textnorm

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/width"
)

// invisible elements whose text is never shown to a visitor
const invisibleSelector = "script, style, noscript, template"

// Page is a normalized resort page
type Page struct {
	Flat string            // collapsed, width-folded visible text
	Doc  *goquery.Document // navigable tree for site-specific lookups
}

// Normalize parses body and builds its canonical text. Malformed markup still
// yields a best-effort tree; Normalize never fails.
func Normalize(body string) *Page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		// html.Parse only fails on reader errors
		return &Page{
			Flat: Collapse(body),
			Doc:  goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode}),
		}
	}

	doc.Find(invisibleSelector).Remove()

	return &Page{
		Flat: Collapse(doc.Text()),
		Doc:  doc,
	}
}

// Collapse removes whitespace and control runes and folds width variants.
func Collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return width.Fold.String(b.String())
}

// FoldDigits maps full-width digits (and other full-width ASCII) to ASCII.
// It is idempotent and safe to apply to already-collapsed text.
func FoldDigits(s string) string {
	return width.Fold.String(s)
}

// Excerpt returns at most n runes from the start of the flat text.
func (p *Page) Excerpt(n int) string {
	if p == nil || n <= 0 {
		return ""
	}
	runes := []rune(p.Flat)
	if len(runes) <= n {
		return p.Flat
	}
	return string(runes[:n])
}

// SelectionText returns the collapsed text of a selection.
func SelectionText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return Collapse(sel.Text())
}
