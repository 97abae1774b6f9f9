package textindex

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Tokenizer converts one cleaned term into one or more index tokens.
// Tokenize never returns an empty slice.
type Tokenizer interface {
	Tokenize(word string) []string
}

const defaultNGramWidth = 3

// NGramTokenizer splits a word into every contiguous substring of a fixed
// character width via a sliding window. Words shorter than the width are
// returned whole as a single token.
type NGramTokenizer struct {
	width int
}

// NewNGramTokenizer creates an n-gram tokenizer. A width below 1 selects
// the default width of 3.
func NewNGramTokenizer(width int) *NGramTokenizer {
	if width < 1 {
		width = defaultNGramWidth
	}
	return &NGramTokenizer{width: width}
}

func (t *NGramTokenizer) Tokenize(word string) []string {
	runes := []rune(word)
	if len(runes) < t.width {
		return []string{word}
	}
	tokens := make([]string, 0, len(runes)-t.width+1)
	for i := 0; i+t.width <= len(runes); i++ {
		tokens = append(tokens, string(runes[i:i+t.width]))
	}
	return tokens
}

const (
	defaultStemSuffixPattern = `(es|ed|ing|s|able)$`
	defaultMinStemLength     = 4
)

// StemTokenizer strips a trailing suffix match from each word. If the
// stemmed result is shorter than the configured minimum the original word
// is kept; a too-short stem is judged not discriminative enough to index.
type StemTokenizer struct {
	suffix    *regexp.Regexp
	minLength int
}

// NewStemTokenizer creates a suffix-stripping tokenizer. An empty pattern
// selects the default suffix alternation, and a minLength below 1 selects
// the default minimum stem length of 4. The pattern must be anchored to
// the end of the word.
func NewStemTokenizer(pattern string, minLength int) (*StemTokenizer, error) {
	if pattern == "" {
		pattern = defaultStemSuffixPattern
	}
	if minLength < 1 {
		minLength = defaultMinStemLength
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling suffix pattern %q: %w", pattern, err)
	}
	return &StemTokenizer{suffix: re, minLength: minLength}, nil
}

func (t *StemTokenizer) Tokenize(word string) []string {
	stemmed := t.suffix.ReplaceAllString(word, "")
	if utf8.RuneCountInString(stemmed) >= t.minLength {
		return []string{stemmed}
	}
	return []string{word}
}
