package textindex

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestToJSONShape(t *testing.T) {
	e := newTestEngine(t)
	e.Add("abc", "hot dog")

	out, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	var decoded struct {
		Version   string                      `json:"version"`
		Documents map[string]int              `json:"documentIds"`
		Terms     map[string]map[string][]int `json:"terms"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if decoded.Version != SchemaVersion {
		t.Errorf("version = %q, want %q", decoded.Version, SchemaVersion)
	}
	if decoded.Documents["abc"] != 7 {
		t.Errorf("documentIds[abc] = %d, want 7", decoded.Documents["abc"])
	}
	positions, ok := decoded.Terms["dog"]["abc"]
	if !ok || len(positions) != 1 || positions[0] != 4 {
		t.Errorf("terms[dog][abc] = %v, want [4]", positions)
	}
}

func TestRoundTripPreservesSearchResults(t *testing.T) {
	e1 := newTestEngine(t)
	indexCorpus(e1)
	snapshot, err := e1.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	e2 := newTestEngine(t)
	if err := e2.FromJSON(snapshot); err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	for _, query := range []string{"my dog", "lazy", "dogs", "quick brown"} {
		want := e1.Search(query)
		got := e2.Search(query)
		if got.Count() != want.Count() {
			t.Fatalf("query %q: count %d != %d", query, got.Count(), want.Count())
		}
		for i := 0; i < want.Count(); i++ {
			w, _ := want.At(i)
			g, _ := got.At(i)
			if g.DocID != w.DocID || math.Abs(g.Score-w.Score) > 1e-9 {
				t.Errorf("query %q rank %d: got %+v, want %+v", query, i, g, w)
			}
		}
	}
}

func TestFromJSONMissingVersion(t *testing.T) {
	e := newTestEngine(t)
	indexCorpus(e)

	err := e.FromJSON(`{"documentIds":["abc"], "terms":{"dog":{"abc":[1,2,3]}}}`)
	if !errors.Is(err, ErrMissingVersion) {
		t.Fatalf("err = %v, want ErrMissingVersion", err)
	}
	// Prior index is untouched.
	if e.DocumentCount() != 4 {
		t.Errorf("DocumentCount() = %d, want 4", e.DocumentCount())
	}
	if e.Search("dogs").Count() != 3 {
		t.Error("prior index no longer searchable after failed load")
	}
}

func TestFromJSONVersionMismatch(t *testing.T) {
	e := newTestEngine(t)
	indexCorpus(e)

	err := e.FromJSON(`{"version":"2.0.0","documentIds":{},"terms":{}}`)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("err = %v, want ErrVersionMismatch", err)
	}
	var mismatch *VersionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err %T does not carry version details", err)
	}
	if mismatch.Loaded != "2.0.0" || mismatch.Current != SchemaVersion {
		t.Errorf("mismatch = %+v", mismatch)
	}
	if e.DocumentCount() != 4 {
		t.Errorf("DocumentCount() = %d, want 4", e.DocumentCount())
	}
}

func TestFromJSONMinorAndSuffixDiffersOK(t *testing.T) {
	e := newTestEngine(t)
	major := majorVersion(SchemaVersion)
	err := e.FromJSON(`{"version":"` + major + `.9.9-beta","documentIds":{"x":5},"terms":{"abc":{"x":[0]}}}`)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if e.DocumentCount() != 1 {
		t.Errorf("DocumentCount() = %d, want 1", e.DocumentCount())
	}
	if e.Search("abc").Count() != 1 {
		t.Error("loaded postings not searchable")
	}
}

func TestFromJSONMalformedShape(t *testing.T) {
	e := newTestEngine(t)
	indexCorpus(e)

	err := e.FromJSON(`{"version":"` + SchemaVersion + `","documentIds":["abc"]}`)
	if err == nil {
		t.Fatal("expected a parse error for array-shaped documentIds")
	}
	if e.DocumentCount() != 4 {
		t.Errorf("DocumentCount() = %d, want 4", e.DocumentCount())
	}
}

func TestFromJSONInvalidJSON(t *testing.T) {
	e := newTestEngine(t)
	if err := e.FromJSON("{not json"); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestFromJSONReplacesIndexWholesale(t *testing.T) {
	e := newTestEngine(t)
	indexCorpus(e)

	if err := e.FromJSON(`{"version":"` + SchemaVersion + `","documentIds":{},"terms":{}}`); err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if e.DocumentCount() != 0 {
		t.Errorf("DocumentCount() = %d, want 0 after loading empty snapshot", e.DocumentCount())
	}
	if e.Search("dogs").Count() != 0 {
		t.Error("old postings survived a successful load")
	}
}

func TestMajorVersion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1.0.0", "1"},
		{"2.13.4-rc1", "2"},
		{"7", "7"},
	}
	for _, tt := range tests {
		if got := majorVersion(tt.in); got != tt.want {
			t.Errorf("majorVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToJSONOmitsAnalyzerConfig(t *testing.T) {
	e := NewEngine(NewEnglishPreprocessor(), NewNGramTokenizer(4))
	e.Add("doc", "analyzer settings stay out of the snapshot")
	out, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, field := range []string{"preprocessor", "tokenizer", "stopWords", "width"} {
		if strings.Contains(out, `"`+field+`"`) {
			t.Errorf("snapshot leaks analyzer field %q", field)
		}
	}
}
