package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/searchlite/searchlite/pkg/textindex"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Full text retrieval engines normalize raw text before indexing it.
        Punctuation is stripped, case is folded, and stop words are removed so
        that the remaining terms carry the signal. Each surviving term keeps
        its character offset in the original text, which lets callers map
        matches back to the source document for highlighting.`,
	"long": strings.Repeat(`An inverted index maps every token to the documents
        containing it along with the positions where it appears. Scoring
        weighs longer tokens and repeated occurrences more heavily and
        normalizes by document length, so short documents with dense matches
        rank above long documents with incidental ones. `, 20),
}

// BenchmarkPreprocess measures text normalization throughput for inputs of
// varying size.
func BenchmarkPreprocess(b *testing.B) {
	pre := textindex.NewEnglishPreprocessor()
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				terms := pre.Process(text)
				_ = terms
			}
		})
	}
}

// BenchmarkNGramTokenize measures trigram expansion cost per word length.
func BenchmarkNGramTokenize(b *testing.B) {
	tok := textindex.NewNGramTokenizer(3)
	words := []string{"dog", "search", "normalization", "internationalization"}
	for _, word := range words {
		b.Run(fmt.Sprintf("len_%d", len(word)), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				tokens := tok.Tokenize(word)
				_ = tokens
			}
		})
	}
}

// BenchmarkStemTokenize measures suffix-stripping cost, dominated by the
// compiled regular expression.
func BenchmarkStemTokenize(b *testing.B) {
	tok, err := textindex.NewStemTokenizer("", 0)
	if err != nil {
		b.Fatal(err)
	}
	words := []string{
		"walking", "walked", "walks", "searchable",
		"indexes", "positions", "retrieval", "normalization",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, w := range words {
			tokens := tok.Tokenize(w)
			_ = tokens
		}
	}
}

// BenchmarkPreprocessParallel measures concurrent normalization throughput.
// A preprocessor is read-only after construction and safe to share.
func BenchmarkPreprocessParallel(b *testing.B) {
	pre := textindex.NewEnglishPreprocessor()
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			terms := pre.Process(text)
			_ = terms
		}
	})
}
