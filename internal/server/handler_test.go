package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/searchlite/searchlite/internal/service"
	"github.com/searchlite/searchlite/pkg/config"
	"github.com/searchlite/searchlite/pkg/health"
	"github.com/searchlite/searchlite/pkg/textindex"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	engine := textindex.NewEngine(textindex.NewEnglishPreprocessor(), textindex.NewNGramTokenizer(3))
	svc := service.New(engine)
	cfg := config.ServerConfig{DefaultLimit: 10, MaxLimit: 100}
	h := NewHandler(svc, nil, cfg, nil)
	router := NewRouter(h, health.NewChecker(), nil, 5*time.Second)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, svc
}

func doRequest(t *testing.T, method, url string, body string) *http.Response {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPutSearchDeleteLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPut, ts.URL+"/api/v1/documents/abc", "The dog is a 'hot dog'.")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("put: got status %d, want 204", resp.StatusCode)
	}
	doRequest(t, http.MethodPut, ts.URL+"/api/v1/documents/def", "Dogs > Cats")

	resp = doRequest(t, http.MethodGet, ts.URL+"/api/v1/search?q=dog", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: got status %d, want 200", resp.StatusCode)
	}
	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decoding search response: %v", err)
	}
	if sr.Total != 2 {
		t.Fatalf("search total: got %d, want 2", sr.Total)
	}
	if len(sr.Hits) != 2 {
		t.Fatalf("search hits: got %d, want 2", len(sr.Hits))
	}

	resp = doRequest(t, http.MethodDelete, ts.URL+"/api/v1/documents/abc", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: got status %d, want 204", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, ts.URL+"/api/v1/search?q=dog", "")
	json.NewDecoder(resp.Body).Decode(&sr)
	if sr.Total != 1 {
		t.Fatalf("search after delete: got total %d, want 1", sr.Total)
	}
	if sr.Hits[0].DocID != "def" {
		t.Fatalf("search after delete: got doc %q, want def", sr.Hits[0].DocID)
	}
}

func TestSearchValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	cases := []struct {
		name string
		url  string
		want int
	}{
		{"missing query", "/api/v1/search", http.StatusBadRequest},
		{"blank query", "/api/v1/search?q=%20%20", http.StatusBadRequest},
		{"negative offset", "/api/v1/search?q=dog&offset=-1", http.StatusBadRequest},
		{"non-numeric offset", "/api/v1/search?q=dog&offset=x", http.StatusBadRequest},
		{"zero limit", "/api/v1/search?q=dog&limit=0", http.StatusBadRequest},
		{"valid", "/api/v1/search?q=dog", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, ts.URL+tc.url, "")
			if resp.StatusCode != tc.want {
				t.Errorf("got status %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestSearchLimitClamped(t *testing.T) {
	ts, _ := newTestServer(t)
	doRequest(t, http.MethodPut, ts.URL+"/api/v1/documents/a", "dog")

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/v1/search?q=dog&limit=100000", "")
	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decoding search response: %v", err)
	}
	if sr.Limit != 100 {
		t.Fatalf("limit: got %d, want clamp to 100", sr.Limit)
	}
}

func TestSearchPagination(t *testing.T) {
	ts, _ := newTestServer(t)
	doRequest(t, http.MethodPut, ts.URL+"/api/v1/documents/abc", "The dog is a 'hot dog'.")
	doRequest(t, http.MethodPut, ts.URL+"/api/v1/documents/def", "Dogs > Cats")
	doRequest(t, http.MethodPut, ts.URL+"/api/v1/documents/ghi", "the quick brown fox jumps over the lazy dog")

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/v1/search?q=dogs&offset=0&limit=2", "")
	var first SearchResponse
	json.NewDecoder(resp.Body).Decode(&first)
	if first.Total != 3 || len(first.Hits) != 2 {
		t.Fatalf("first page: total=%d hits=%d, want total=3 hits=2", first.Total, len(first.Hits))
	}

	resp = doRequest(t, http.MethodGet, ts.URL+"/api/v1/search?q=dogs&offset=2&limit=2", "")
	var second SearchResponse
	json.NewDecoder(resp.Body).Decode(&second)
	if len(second.Hits) != 1 {
		t.Fatalf("second page: got %d hits, want 1", len(second.Hits))
	}
	if second.Hits[0].DocID == first.Hits[0].DocID || second.Hits[0].DocID == first.Hits[1].DocID {
		t.Fatalf("pages overlap: %q appeared twice", second.Hits[0].DocID)
	}

	resp = doRequest(t, http.MethodGet, ts.URL+"/api/v1/search?q=dogs&offset=10&limit=10", "")
	var beyond SearchResponse
	json.NewDecoder(resp.Body).Decode(&beyond)
	if len(beyond.Hits) != 0 {
		t.Fatalf("out-of-range page: got %d hits, want 0", len(beyond.Hits))
	}
}

func TestClearIndex(t *testing.T) {
	ts, svc := newTestServer(t)
	doRequest(t, http.MethodPut, ts.URL+"/api/v1/documents/a", "some dog text")
	doRequest(t, http.MethodPut, ts.URL+"/api/v1/documents/b", "more dog text")

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/v1/index/clear", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("clear: got status %d, want 204", resp.StatusCode)
	}
	if docs, _ := svc.Counts(); docs != 0 {
		t.Fatalf("after clear: got %d documents, want 0", docs)
	}
}

func TestStats(t *testing.T) {
	ts, _ := newTestServer(t)
	doRequest(t, http.MethodPut, ts.URL+"/api/v1/documents/a", "hello world")

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/v1/stats", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: got status %d, want 200", resp.StatusCode)
	}
	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if docs, ok := stats["documents"].(float64); !ok || docs != 1 {
		t.Fatalf("stats documents: got %v, want 1", stats["documents"])
	}
}

func TestSnapshotEndpointsWithoutStore(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, c := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/snapshots"},
		{http.MethodGet, "/api/v1/snapshots"},
		{http.MethodPost, "/api/v1/snapshots/latest/restore"},
		{http.MethodDelete, "/api/v1/snapshots/latest"},
	} {
		resp := doRequest(t, c.method, ts.URL+c.path, "")
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s %s: got status %d, want 503", c.method, c.path, resp.StatusCode)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doRequest(t, http.MethodGet, ts.URL+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: got status %d, want 200", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doRequest(t, http.MethodGet, ts.URL+"/api/v1/stats", "")
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("response missing X-Request-Id header")
	}
}
