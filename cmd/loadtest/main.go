// Command loadtest drives a running searchlite instance with concurrent
// search traffic and reports throughput and latency percentiles. It can
// optionally seed the index first by publishing generated documents to
// the ingestion topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/searchlite/searchlite/internal/ingest"
	"github.com/searchlite/searchlite/pkg/config"
	"github.com/searchlite/searchlite/pkg/kafka"
)

var searchQueries = []string{
	"quick brown fox",
	"lazy dog",
	"inverted index",
	"token positions",
	"snapshot restore",
	"document ingestion",
	"query cache",
	"stemming tokenizer",
	"trigram search",
	"stop word removal",
	"relevance score",
	"full text search",
}

// stats accumulates results under one mutex. Workers contend on it only
// for a few nanoseconds per request, which is noise next to the HTTP
// round trip being measured.
type stats struct {
	mu        sync.Mutex
	latencies []time.Duration
	statuses  map[int]int
	netErrors int
}

func newStats() *stats {
	return &stats{
		latencies: make([]time.Duration, 0, 1<<17),
		statuses:  make(map[int]int),
	}
}

func (s *stats) record(latency time.Duration, status int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.netErrors++
		return
	}
	s.statuses[status]++
	s.latencies = append(s.latencies, latency)
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	workers := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	seed := flag.Int("seed", 0, "number of documents to publish before the test (0 skips seeding)")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers for seeding")
	topic := flag.String("topic", "searchlite.documents", "Kafka topic for seeding")
	flag.Parse()

	fmt.Printf("searchlite load test: %s, %d workers, %s\n", *baseURL, *workers, *duration)

	if *seed > 0 {
		if err := seedDocuments(*brokers, *topic, *seed); err != nil {
			fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
			os.Exit(1)
		}
	}

	st := run(*baseURL, *workers, *duration)
	report(st, *duration)
}

// seedDocuments publishes generated documents so the service has content
// to search. Text is assembled from the query vocabulary, so every query
// in the test set produces matches.
func seedDocuments(brokers, topic string, count int) error {
	producer := kafka.NewProducer(config.KafkaConfig{Brokers: strings.Split(brokers, ",")}, topic)
	defer producer.Close()

	var words []string
	for _, q := range searchQueries {
		words = append(words, strings.Fields(q)...)
	}
	rng := rand.New(rand.NewSource(42))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Printf("seeding %d documents via %s\n", count, topic)
	const batchSize = 100
	for base := 0; base < count; base += batchSize {
		n := min(batchSize, count-base)
		batch := make([]kafka.Event, n)
		for i := range batch {
			text := make([]string, 20)
			for w := range text {
				text[w] = words[rng.Intn(len(words))]
			}
			docID := fmt.Sprintf("loadtest-%06d", base+i)
			batch[i] = kafka.Event{
				Key:   docID,
				Value: ingest.DocumentEvent{Op: "index", ID: docID, Text: strings.Join(text, " ")},
			}
		}
		if err := producer.PublishBatch(ctx, batch); err != nil {
			return err
		}
	}
	fmt.Println("seeding complete")
	return nil
}

func run(baseURL string, workers int, duration time.Duration) *stats {
	st := newStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        workers * 2,
			MaxIdleConnsPerHost: workers * 2,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := offset; ctx.Err() == nil; i++ {
				query := searchQueries[i%len(searchQueries)]
				target := fmt.Sprintf("%s/api/v1/search?q=%s&limit=10", baseURL, url.QueryEscape(query))

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
				if err != nil {
					panic(err)
				}
				start := time.Now()
				resp, err := client.Do(req)
				if err != nil {
					if ctx.Err() == nil {
						st.record(0, 0, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				st.record(time.Since(start), resp.StatusCode, nil)
			}
		}(w)
	}
	wg.Wait()
	return st
}

func report(st *stats, duration time.Duration) {
	st.mu.Lock()
	defer st.mu.Unlock()

	total := len(st.latencies) + st.netErrors
	fmt.Printf("\nrequests:     %d (%.1f/sec)\n", total, float64(total)/duration.Seconds())
	fmt.Printf("net errors:   %d\n", st.netErrors)

	codes := make([]int, 0, len(st.statuses))
	for code := range st.statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("  HTTP %d:   %d\n", code, st.statuses[code])
	}

	if len(st.latencies) == 0 {
		fmt.Println("\nno requests completed; is the service running?")
		os.Exit(1)
	}

	sort.Slice(st.latencies, func(i, j int) bool { return st.latencies[i] < st.latencies[j] })
	var sum time.Duration
	for _, l := range st.latencies {
		sum += l
	}
	pct := func(p int) time.Duration {
		idx := p * len(st.latencies) / 100
		if idx >= len(st.latencies) {
			idx = len(st.latencies) - 1
		}
		return st.latencies[idx]
	}

	fmt.Printf("\nlatency: min=%s avg=%s p50=%s p90=%s p99=%s max=%s\n",
		st.latencies[0],
		sum/time.Duration(len(st.latencies)),
		pct(50), pct(90), pct(99),
		st.latencies[len(st.latencies)-1],
	)
}
