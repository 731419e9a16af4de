package detect

// Candidate is a tentative match produced by a single detector before
// cross-category overlap resolution. Offsets are byte offsets into the
// original text; End is exclusive.
type Candidate struct {
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Value    string   `json:"value"`
	Category Category `json:"category"`
	Priority int      `json:"priority"`
}

// Match is a Candidate promoted to the final, non-overlapping selection.
type Match = Candidate

// Span is the contract an external entity recognizer must satisfy: byte
// offsets over the original text plus the recognizer's own entity tag.
// Tags are mapped through MapExternalCategory before merging.
type Span struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Len returns the span length in bytes.
func (c Candidate) Len() int { return c.End - c.Start }

// Overlaps reports whether two candidates share any byte.
func (c Candidate) Overlaps(o Candidate) bool {
	return c.Start < o.End && o.Start < c.End
}

func newCandidate(start, end int, value string, cat Category) Candidate {
	return Candidate{Start: start, End: end, Value: value, Category: cat, Priority: cat.Priority()}
}
