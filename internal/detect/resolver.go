package detect

import "sort"

// Resolve merges candidates from all detectors into a single
// non-overlapping selection: sort descending by (priority, length),
// greedily accept a span iff it does not overlap any accepted span, then
// sort the accepted set ascending by start offset.
//
// This deliberately favors higher-priority, then longer matches over
// maximizing the count of non-overlapping spans. Every priority comes
// from the category table, and ties in both priority and length break on
// category name, then start offset, so output never depends on the order
// detectors ran in.
func Resolve(candidates []Candidate) []Match {
	if len(candidates) == 0 {
		return nil
	}

	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Start < b.Start
	})

	var selected []Match
	for _, c := range ordered {
		if !overlapsAny(c, selected) {
			selected = append(selected, c)
		}
	}

	sort.Slice(selected, func(i, j int) bool { return selected[i].Start < selected[j].Start })
	return selected
}
