// Package benchmark contains Go benchmarks for the text index engine and
// its analysis pipeline, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/searchlite/searchlite/pkg/textindex"
)

func newBenchEngine(b *testing.B) *textindex.Engine {
	b.Helper()
	return textindex.NewEngine(textindex.NewEnglishPreprocessor(), textindex.NewNGramTokenizer(3))
}

// BenchmarkEngineAdd measures per-document insert throughput.
func BenchmarkEngineAdd(b *testing.B) {
	engine := newBenchEngine(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		engine.Add(docID, "the quick brown fox jumps over the lazy dog while indexing documents for retrieval")
	}
}

// BenchmarkEngineSearch measures query latency over a pre-built corpus of
// 10 000 documents.
func BenchmarkEngineSearch(b *testing.B) {
	engine := newBenchEngine(b)
	for i := 0; i < 10000; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		engine.Add(docID, "full text search with an inverted index and positional postings")
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := engine.Search("inverted index")
		_ = results
	}
}

// BenchmarkEngineSearchParallel measures concurrent read throughput. The
// engine permits concurrent searches as long as no writes are in flight.
func BenchmarkEngineSearchParallel(b *testing.B) {
	engine := newBenchEngine(b)
	for i := 0; i < 10000; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		engine.Add(docID, "full text search with an inverted index and positional postings")
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results := engine.Search("positional postings")
			_ = results
		}
	})
}

// BenchmarkEngineRemove measures the full-postings scan a removal performs,
// at varying corpus sizes.
func BenchmarkEngineRemove(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, numDocs := range sizes {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			engine := newBenchEngine(b)
			for i := 0; i < numDocs; i++ {
				engine.Add(fmt.Sprintf("doc-%d", i), "documents sharing a large common vocabulary of searchable terms")
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				engine.Add("victim", "documents sharing a large common vocabulary of searchable terms")
				b.StartTimer()
				engine.Remove("victim")
			}
		})
	}
}

// BenchmarkSnapshotRoundTrip measures serialization and restore cost for
// different index sizes.
func BenchmarkSnapshotRoundTrip(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, numDocs := range sizes {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			engine := newBenchEngine(b)
			for i := 0; i < numDocs; i++ {
				engine.Add(fmt.Sprintf("doc-%d", i), "snapshot serialization benchmark with several distinct terms per document")
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				payload, err := engine.ToJSON()
				if err != nil {
					b.Fatal(err)
				}
				if err := engine.FromJSON(payload); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkResultIteration measures lazy iteration over a large result set.
func BenchmarkResultIteration(b *testing.B) {
	engine := newBenchEngine(b)
	for i := 0; i < 5000; i++ {
		engine.Add(fmt.Sprintf("doc-%d", i), strings.Repeat("searchable content ", 10))
	}
	results := engine.Search("searchable")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		count := 0
		for range results.Iterator(0, results.Count(), 1) {
			count++
		}
		_ = count
	}
}
