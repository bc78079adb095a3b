// Package resort provides the data model shared by the extraction engine.
//
// A Source identifies one resort page to scrape together with the static facts
// the classifier needs (the total number of courses). An ExtractionResult is the
// normalized outcome of one pass over that page: snow depth, operating status and
// open-course count, each of which may be unknown.
package resort
