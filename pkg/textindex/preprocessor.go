package textindex

import (
	"strings"
	"unicode"
)

// TermPosition is a cleaned word paired with the character offset of its
// first (pre-clean) character in the original text.
type TermPosition struct {
	Term     string
	Position int
}

// Preprocessor turns raw text into an ordered sequence of cleaned terms
// with their source offsets.
type Preprocessor interface {
	// Process scans text once and returns a fresh term list. The input is
	// never mutated.
	Process(text string) []TermPosition
	// Clean lower-cases a single word and strips punctuation from it.
	Clean(word string) string
}

// defaultPunctuation is the fixed ASCII symbol class stripped by Clean.
// Multi-byte scripts pass through untouched apart from case folding.
const defaultPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// BasicPreprocessor splits text on a configurable predicate (default: any
// whitespace), lower-cases each word, strips punctuation, and drops stop
// words. Stop words are cleaned at construction time so membership is
// checked post-cleaning.
type BasicPreprocessor struct {
	split     func(rune) bool
	punct     map[rune]struct{}
	stopWords map[string]struct{}
}

// PreprocessorOption configures a BasicPreprocessor.
type PreprocessorOption func(*BasicPreprocessor, *[]string)

// WithSplitFunc replaces the word-boundary predicate.
func WithSplitFunc(fn func(rune) bool) PreprocessorOption {
	return func(p *BasicPreprocessor, _ *[]string) {
		p.split = fn
	}
}

// WithPunctuation replaces the set of runes stripped by Clean.
func WithPunctuation(set string) PreprocessorOption {
	return func(p *BasicPreprocessor, _ *[]string) {
		p.punct = make(map[rune]struct{}, len(set))
		for _, r := range set {
			p.punct[r] = struct{}{}
		}
	}
}

// WithStopWords adds words to the stop set. Each word is run through Clean
// before membership checks, using the punctuation set in effect after all
// options are applied.
func WithStopWords(words ...string) PreprocessorOption {
	return func(_ *BasicPreprocessor, raw *[]string) {
		*raw = append(*raw, words...)
	}
}

// NewBasicPreprocessor creates a preprocessor with whitespace splitting,
// the default ASCII punctuation set, and an empty stop set.
func NewBasicPreprocessor(opts ...PreprocessorOption) *BasicPreprocessor {
	p := &BasicPreprocessor{split: unicode.IsSpace}
	WithPunctuation(defaultPunctuation)(p, nil)
	var raw []string
	for _, opt := range opts {
		opt(p, &raw)
	}
	p.stopWords = make(map[string]struct{}, len(raw))
	for _, w := range raw {
		if cleaned := p.Clean(w); cleaned != "" {
			p.stopWords[cleaned] = struct{}{}
		}
	}
	return p
}

// NewEnglishPreprocessor is a BasicPreprocessor pre-seeded with a fixed
// English stop-word list. Options may add further stop words.
func NewEnglishPreprocessor(opts ...PreprocessorOption) *BasicPreprocessor {
	seeded := append([]PreprocessorOption{WithStopWords(englishStopWords...)}, opts...)
	return NewBasicPreprocessor(seeded...)
}

// Process scans text character by character, accumulating contiguous
// non-split runs. Each run is cleaned and, unless empty or a stop word,
// emitted with the offset of its original first character. Offsets count
// characters, not bytes.
func (p *BasicPreprocessor) Process(text string) []TermPosition {
	terms := make([]TermPosition, 0)
	var word []rune
	start := 0
	pos := 0
	flush := func() {
		if len(word) == 0 {
			return
		}
		cleaned := p.Clean(string(word))
		word = word[:0]
		if cleaned == "" {
			return
		}
		if _, stop := p.stopWords[cleaned]; stop {
			return
		}
		terms = append(terms, TermPosition{Term: cleaned, Position: start})
	}
	for _, r := range text {
		if p.split(r) {
			flush()
		} else {
			if len(word) == 0 {
				start = pos
			}
			word = append(word, r)
		}
		pos++
	}
	flush()
	return terms
}

// Clean lower-cases word and removes every rune in the punctuation set.
func (p *BasicPreprocessor) Clean(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		if _, ok := p.punct[r]; !ok {
			b.WriteRune(r)
		}
	}
	return b.String()
}
