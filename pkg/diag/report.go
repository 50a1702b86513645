package diag

import "sort"

// Report is a mutex-free (assembled once, then read-only) sorted
// collection of Results: a single struct that owns the sort order so
// callers never have to sort at the print site.
type Report struct {
	Results []Result
}

// NewReport copies results, sorts the copy by Name, and returns a Report.
func NewReport(results []Result) *Report {
	sorted := make([]Result, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Report{Results: sorted}
}

// PassCount returns how many Results passed.
func (r *Report) PassCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Pass {
			n++
		}
	}
	return n
}

// FailCount returns how many Results failed.
func (r *Report) FailCount() int {
	return len(r.Results) - r.PassCount()
}

// Diff compares r against a previous Report (e.g. loaded from a --cache
// file) and returns the names whose Pass status changed.
func (r *Report) Diff(previous *Report) []string {
	if previous == nil {
		return nil
	}
	prevPass := make(map[string]bool, len(previous.Results))
	for _, res := range previous.Results {
		prevPass[res.Name] = res.Pass
	}
	var changed []string
	for _, res := range r.Results {
		if was, ok := prevPass[res.Name]; ok && was != res.Pass {
			changed = append(changed, res.Name)
		}
	}
	return changed
}
