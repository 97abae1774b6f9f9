package textindex

// SchemaVersion identifies the index schema generation, not the library
// release. Only the leading major component is checked on load.
const SchemaVersion = "1.0.0"

// Index is the full in-memory and persisted structure: schema version,
// per-document character lengths, and per-token positional postings.
type Index struct {
	Version string `json:"version"`

	// Documents maps a document ID to the character length of its indexed
	// text. The text itself is never stored.
	Documents map[string]int `json:"documentIds"`

	// Postings maps token → document ID → ordered positions at which the
	// token's originating term occurred. Inner lists are never empty; a
	// token whose inner map empties is removed entirely.
	Postings map[string]map[string][]int `json:"terms"`
}

func newIndex() *Index {
	return &Index{
		Version:   SchemaVersion,
		Documents: make(map[string]int),
		Postings:  make(map[string]map[string][]int),
	}
}
