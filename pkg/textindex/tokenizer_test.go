package textindex

import (
	"reflect"
	"testing"
)

func TestNGramTokenizer(t *testing.T) {
	tok := NewNGramTokenizer(3)
	tests := []struct {
		word string
		want []string
	}{
		{"dog", []string{"dog"}},
		{"dogs", []string{"dog", "ogs"}},
		{"lazy", []string{"laz", "azy"}},
		{"ab", []string{"ab"}},
		{"", []string{""}},
		{"quick", []string{"qui", "uic", "ick"}},
	}
	for _, tt := range tests {
		got := tok.Tokenize(tt.word)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}

func TestNGramTokenizerCount(t *testing.T) {
	tok := NewNGramTokenizer(3)
	for _, word := range []string{"abc", "abcd", "abcdefgh"} {
		got := tok.Tokenize(word)
		if want := len(word) - 3 + 1; len(got) != want {
			t.Errorf("Tokenize(%q) produced %d tokens, want %d", word, len(got), want)
		}
	}
}

func TestNGramTokenizerDefaultWidth(t *testing.T) {
	tok := NewNGramTokenizer(0)
	if got := tok.Tokenize("dogs"); !reflect.DeepEqual(got, []string{"dog", "ogs"}) {
		t.Errorf("default width: Tokenize(dogs) = %v", got)
	}
}

func TestNGramTokenizerMultibyte(t *testing.T) {
	tok := NewNGramTokenizer(2)
	got := tok.Tokenize("héllo")
	want := []string{"hé", "él", "ll", "lo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(héllo) = %v, want %v", got, want)
	}
}

func TestStemTokenizerDefaults(t *testing.T) {
	tok, err := NewStemTokenizer("", 0)
	if err != nil {
		t.Fatalf("NewStemTokenizer: %v", err)
	}
	tests := []struct {
		word string
		want []string
	}{
		{"walked", []string{"walk"}},
		{"testing", []string{"test"}},
		{"indexes", []string{"index"}},
		// stem "dog" would fall below the minimum length of 4
		{"dogs", []string{"dogs"}},
		{"stable", []string{"stable"}},
		{"fox", []string{"fox"}},
	}
	for _, tt := range tests {
		got := tok.Tokenize(tt.word)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}

func TestStemTokenizerMinLength(t *testing.T) {
	tok, err := NewStemTokenizer("", 3)
	if err != nil {
		t.Fatalf("NewStemTokenizer: %v", err)
	}
	if got := tok.Tokenize("dogs"); !reflect.DeepEqual(got, []string{"dog"}) {
		t.Errorf("Tokenize(dogs) = %v, want [dog]", got)
	}
}

func TestStemTokenizerBadPattern(t *testing.T) {
	if _, err := NewStemTokenizer("(", 0); err == nil {
		t.Error("expected error for invalid pattern")
	}
}
