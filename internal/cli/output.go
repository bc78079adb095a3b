package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pfrederiksen/ski-status/internal/aggregator"
	"github.com/pfrederiksen/ski-status/internal/resort"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
)

// Valid reports whether f is a known format.
func (f OutputFormat) Valid() bool {
	return f == FormatText || f == FormatJSON || f == FormatTable
}

const timeLayout = "2006-01-02 15:04 MST"

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt time.Time                 `json:"checked_at"`
	Filter    string                    `json:"filter"`
	Summary   aggregator.Summary        `json:"summary"`
	Resorts   []resort.ExtractionResult `json:"resorts"`
}

// WriteOutput writes the result in the specified format. Times are shown in
// loc.
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose, loc)
	case FormatTable:
		return writeTable(w, result, verbose, loc)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	if result.Resorts == nil {
		result.Resorts = []resort.ExtractionResult{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool, loc *time.Location) error {
	if len(result.Resorts) == 0 {
		fmt.Fprintln(w, "No resorts match.")
	}

	for _, r := range result.Resorts {
		fmt.Fprintf(w, "%s: %s | snow %s | courses %s\n",
			r.Name, r.Status.Label(), r.SnowDepthText(), r.OpenCoursesText())
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", r.ResortID)
			fmt.Fprintf(w, "     URL: %s\n", r.URL)
			if r.Strategy != "" {
				fmt.Fprintf(w, "     Strategy: %s\n", r.Strategy)
			}
			if !r.FetchedAt.IsZero() {
				fmt.Fprintf(w, "     Fetched: %s\n", r.FetchedAt.In(loc).Format(timeLayout))
			}
			if r.Error != "" {
				fmt.Fprintf(w, "     Error: %s\n", r.Error)
			}
			if r.Excerpt != "" {
				fmt.Fprintf(w, "     Excerpt: %s\n", r.Excerpt)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", summaryLine(result.Summary))
	if result.Filter != "" && verbose {
		fmt.Fprintf(w, "Filter: %s\n", result.Filter)
	}
	fmt.Fprintf(w, "Checked at %s\n", result.CheckedAt.In(loc).Format(timeLayout))
	return nil
}

// writeTable outputs results as a rounded table
func writeTable(w io.Writer, result *OutputResult, verbose bool, loc *time.Location) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	header := table.Row{"Resort", "Status", "Snow", "Courses"}
	if verbose {
		header = append(header, "Strategy", "Fetched", "Error")
	}
	t.AppendHeader(header)

	for _, r := range result.Resorts {
		row := table.Row{r.Name, r.Status.Label(), r.SnowDepthText(), r.OpenCoursesText()}
		if verbose {
			fetched := ""
			if !r.FetchedAt.IsZero() {
				fetched = r.FetchedAt.In(loc).Format(timeLayout)
			}
			row = append(row, r.Strategy, fetched, r.Error)
		}
		t.AppendRow(row)
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Snow", Align: text.AlignRight},
		{Name: "Courses", Align: text.AlignRight},
	})
	t.AppendFooter(table.Row{summaryLine(result.Summary)})
	t.Render()

	fmt.Fprintf(w, "Checked at %s\n", result.CheckedAt.In(loc).Format(timeLayout))
	return nil
}

func summaryLine(s aggregator.Summary) string {
	return fmt.Sprintf("Total: %d resorts (open %d, closed %d, unknown %d, failed %d)",
		s.Total, s.Open, s.Closed, s.Unknown, s.Failed)
}
