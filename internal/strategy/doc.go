// Package strategy extracts snow depth, operating status and open-course count
// from a normalized resort page.
//
// Extraction is two-tiered. A Registry maps resort IDs to a Site strategy that
// knows the page structure of that resort (a labeled table cell, a definition
// list, a status box). Whatever a Site does not find is filled in by the
// generic rules, which are ordered tables of label patterns and phrases
// evaluated first-match-wins against the collapsed page text.
package strategy
