package textindex

import (
	"sort"
	"unicode/utf8"
)

// Engine owns an Index plus the Preprocessor and Tokenizer used for both
// indexing and querying. It performs no locking; see the package comment.
type Engine struct {
	index        *Index
	preprocessor Preprocessor
	tokenizer    Tokenizer
}

// NewEngine creates an engine with an empty index. A nil preprocessor
// defaults to NewBasicPreprocessor and a nil tokenizer to the default
// 3-gram tokenizer.
func NewEngine(p Preprocessor, t Tokenizer) *Engine {
	if p == nil {
		p = NewBasicPreprocessor()
	}
	if t == nil {
		t = NewNGramTokenizer(0)
	}
	return &Engine{
		index:        newIndex(),
		preprocessor: p,
		tokenizer:    t,
	}
}

// Add indexes text under docID. Re-adding a known docID resets positions
// only for tokens the new text produces; tokens from an earlier indexing
// that no longer occur keep their stale postings, and the stored document
// length is not refreshed (see the package comment). Remove first for a
// clean update.
func (e *Engine) Add(docID string, text string) {
	_, known := e.index.Documents[docID]
	reset := make(map[string]bool)
	for _, term := range e.preprocessor.Process(text) {
		for _, token := range e.tokenizer.Tokenize(term.Term) {
			docs, ok := e.index.Postings[token]
			if !ok {
				docs = make(map[string][]int)
				e.index.Postings[token] = docs
			}
			if !reset[token] {
				docs[docID] = nil
				reset[token] = true
			}
			docs[docID] = append(docs[docID], term.Position)
		}
	}
	if !known {
		e.index.Documents[docID] = utf8.RuneCountInString(text)
	}
}

// Remove deletes docID from the index. Unknown IDs are a no-op. Cost is
// proportional to the total number of tokens in the index, not to the
// document's size.
func (e *Engine) Remove(docID string) {
	if _, ok := e.index.Documents[docID]; !ok {
		return
	}
	delete(e.index.Documents, docID)
	for token, docs := range e.index.Postings {
		if _, ok := docs[docID]; !ok {
			continue
		}
		delete(docs, docID)
		if len(docs) == 0 {
			delete(e.index.Postings, token)
		}
	}
}

// Clear discards all documents and postings and resets the schema version.
func (e *Engine) Clear() {
	e.index = newIndex()
}

// DocumentCount returns the number of indexed documents.
func (e *Engine) DocumentCount() int {
	return len(e.index.Documents)
}

// TokenCount returns the number of distinct tokens in the index.
func (e *Engine) TokenCount() int {
	return len(e.index.Postings)
}

// Search runs query through the same preprocess/tokenize pipeline as Add,
// scores every document that shares at least one token with the query, and
// returns the matches ranked by descending score. The relative order of
// equal scores is unspecified. A query with no matching tokens yields an
// empty ResultSet.
//
// score(doc) = Σ over matched tokens (len(token) × occurrences) / doc length
func (e *Engine) Search(query string) *ResultSet {
	// token → docID → total occurrences, summed across repeated query tokens
	counts := make(map[string]map[string]int)
	for _, term := range e.preprocessor.Process(query) {
		for _, token := range e.tokenizer.Tokenize(term.Term) {
			docs, ok := e.index.Postings[token]
			if !ok {
				continue
			}
			perDoc := counts[token]
			if perDoc == nil {
				perDoc = make(map[string]int, len(docs))
				counts[token] = perDoc
			}
			for docID, positions := range docs {
				perDoc[docID] += len(positions)
			}
		}
	}

	scores := make(map[string]float64)
	for token, perDoc := range counts {
		tokenLen := utf8.RuneCountInString(token)
		for docID, occurrences := range perDoc {
			scores[docID] += float64(tokenLen*occurrences) / float64(e.index.Documents[docID])
		}
	}

	matches := make([]Match, 0, len(scores))
	for docID, score := range scores {
		matches = append(matches, Match{DocID: docID, Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return &ResultSet{query: query, matches: matches}
}
