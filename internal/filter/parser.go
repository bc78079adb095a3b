package filter

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/ski-status/internal/resort"
)

// ParseStatuses parses a comma-separated status list such as
// "fully_open,partially_open". The alias "open" expands to every open status.
// Duplicates are dropped; order follows first appearance.
func ParseStatuses(input string) ([]resort.Status, error) {
	var statuses []resort.Status
	seen := make(map[resort.Status]bool)
	add := func(s resort.Status) {
		if !seen[s] {
			seen[s] = true
			statuses = append(statuses, s)
		}
	}

	for _, part := range strings.Split(input, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if name == "open" {
			for _, s := range resort.AllStatuses {
				if s.IsOpen() {
					add(s)
				}
			}
			continue
		}
		s, err := resort.ParseStatus(name)
		if err != nil {
			return nil, fmt.Errorf("invalid status filter: %w", err)
		}
		add(s)
	}

	return statuses, nil
}

// ParseList splits a comma-separated list, trimming blanks.
func ParseList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
