package textnorm

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "customer escalated quickly", []string{"customer", "escalated", "quickly"}},
		{"lowercases", "FRAUD Alert", []string{"fraud", "alert"}},
		{"drops_stopwords", "why did the customer escalate", []string{"customer", "escalate"}},
		{"drops_short_tokens", "it is my tv", []string{}},
		{"splits_punctuation", "refund, please! now?!", []string{"refund", "please", "now"}},
		{"keeps_digits", "error 403 again", []string{"error", "403", "again"}},
		{"keeps_duplicates", "package package missing", []string{"package", "package", "missing"}},
		{"empty", "", nil},
		{"only_stopwords", "why was that", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenSet(t *testing.T) {
	set := TokenSet("Package package MISSING, the missing package")

	want := map[string]bool{"package": true, "missing": true}
	if !reflect.DeepEqual(set, want) {
		t.Errorf("TokenSet() = %v, want %v", set, want)
	}
}

func TestTokenSet_Empty(t *testing.T) {
	set := TokenSet("why did the")
	if len(set) != 0 {
		t.Errorf("expected empty set for all-stopword input, got %v", set)
	}
}
