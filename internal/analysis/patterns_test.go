package analysis

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPatterns(t *testing.T) {
	os.Unsetenv("ROOTCAUSE_PATTERNS")

	patterns, err := DefaultPatterns()
	if err != nil {
		t.Fatalf("DefaultPatterns() error = %v", err)
	}
	if patterns.Len() == 0 {
		t.Fatal("embedded vocabulary has no patterns")
	}

	stats := patterns.Stats()
	for _, cat := range []Category{
		CategoryTemporal, CategoryEmotional, CategoryTechnical, CategoryFinancial,
		CategoryRepetition, CategoryTracking, CategoryVerification,
		CategoryResolution, CategoryDenial, CategoryLocation,
	} {
		if stats[cat] == 0 {
			t.Errorf("no patterns in category %s", cat)
		}
	}
}

func TestDefaultPatterns_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	content := `patterns:
  - category: temporal
    regex: 'test\s+pattern'
    template: 'test matched'
    weight: 0.5
    outcomes: [escalation]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	os.Setenv("ROOTCAUSE_PATTERNS", path)
	defer os.Unsetenv("ROOTCAUSE_PATTERNS")

	patterns, err := DefaultPatterns()
	if err != nil {
		t.Fatalf("DefaultPatterns() error = %v", err)
	}
	if patterns.Len() != 1 {
		t.Errorf("Len() = %d, want 1 from override file", patterns.Len())
	}
}

func TestDefaultPatterns_MissingOverrideFile(t *testing.T) {
	os.Setenv("ROOTCAUSE_PATTERNS", "/nonexistent/patterns.yaml")
	defer os.Unsetenv("ROOTCAUSE_PATTERNS")

	_, err := DefaultPatterns()
	var perr *PatternError
	if !errors.As(err, &perr) {
		t.Errorf("expected *PatternError for missing file, got %v", err)
	}
}

func TestLoadPatterns_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not_yaml", `{{{`},
		{"no_patterns", `patterns: []`},
		{"bad_regex", `patterns:
  - category: temporal
    regex: '([unclosed'
    template: 'x'
    weight: 0.5
    outcomes: [escalation]
`},
		{"unknown_category", `patterns:
  - category: astrology
    regex: 'x'
    template: 'x'
    weight: 0.5
    outcomes: [escalation]
`},
		{"zero_weight", `patterns:
  - category: temporal
    regex: 'x'
    template: 'x'
    weight: 0
    outcomes: [escalation]
`},
		{"unknown_outcome", `patterns:
  - category: temporal
    regex: 'x'
    template: 'x'
    weight: 0.5
    outcomes: [victory]
`},
		{"missing_outcomes", `patterns:
  - category: temporal
    regex: 'x'
    template: 'x'
    weight: 0.5
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPatterns([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected load error")
			}
			var perr *PatternError
			if !errors.As(err, &perr) {
				t.Errorf("expected *PatternError, got %T: %v", err, err)
			}
		})
	}
}

func TestPatternError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	perr := &PatternError{Category: "temporal", Regex: "x", Err: inner}

	if !errors.Is(perr, inner) {
		t.Error("PatternError must unwrap to the underlying cause")
	}
	if perr.Error() == "" {
		t.Error("PatternError must render a message")
	}
}
