package textindex

import "iter"

// Match is one scored hit in a ResultSet.
type Match struct {
	DocID string  `json:"docId"`
	Score float64 `json:"score"`
}

// ResultSet is an immutable snapshot of one search's ranked matches plus
// the query that produced them. Access never re-scores; every view is over
// the precomputed list.
type ResultSet struct {
	query   string
	matches []Match
}

// Query returns the original query string.
func (r *ResultSet) Query() string {
	return r.query
}

// Count returns the total number of matches.
func (r *ResultSet) Count() int {
	return len(r.matches)
}

// At returns the match at offset. Negative offsets count from the end
// (-1 is the last match). Out-of-range offsets return ok=false, not an
// error.
func (r *ResultSet) At(offset int) (Match, bool) {
	if offset < 0 {
		offset += len(r.matches)
	}
	if offset < 0 || offset >= len(r.matches) {
		return Match{}, false
	}
	return r.matches[offset], true
}

// Slice returns a copy of the matches in [start, end), clamped to the
// available results. A window entirely past the result count yields an
// empty slice.
func (r *ResultSet) Slice(start, end int) []Match {
	if start < 0 {
		start = 0
	}
	if end > len(r.matches) {
		end = len(r.matches)
	}
	if start >= end {
		return []Match{}
	}
	out := make([]Match, end-start)
	copy(out, r.matches[start:end])
	return out
}

// Iterator returns a lazy sequence over [start, min(end, Count)) advancing
// by step. Each call produces an independent, restartable traversal; a
// step below 1 is treated as 1.
func (r *ResultSet) Iterator(start, end, step int) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		from, stride := start, step
		if from < 0 {
			from = 0
		}
		if stride < 1 {
			stride = 1
		}
		to := end
		if to > len(r.matches) {
			to = len(r.matches)
		}
		for i := from; i < to; i += stride {
			if !yield(r.matches[i]) {
				return
			}
		}
	}
}

// All iterates every match in rank order.
func (r *ResultSet) All() iter.Seq[Match] {
	return r.Iterator(0, len(r.matches), 1)
}
