package analysis

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatternsYAML []byte

// Category tags a causal pattern with the kind of signal it detects
type Category string

const (
	CategoryTemporal     Category = "temporal"
	CategoryEmotional    Category = "emotional"
	CategoryTechnical    Category = "technical"
	CategoryFinancial    Category = "financial"
	CategoryRepetition   Category = "repetition"
	CategoryTracking     Category = "tracking"
	CategoryVerification Category = "verification"
	CategoryResolution   Category = "resolution"
	CategoryDenial       Category = "denial"
	CategoryLocation     Category = "location"
)

// PatternError reports a malformed pattern configuration. Raised only at
// load time, never during a request.
type PatternError struct {
	Category string
	Regex    string
	Err      error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid causal pattern (category=%s, regex=%q): %v", e.Category, e.Regex, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// patternSpec is the on-disk pattern form
type patternSpec struct {
	Category   string   `yaml:"category" validate:"required,oneof=temporal emotional technical financial repetition tracking verification resolution denial location"`
	Regex      string   `yaml:"regex" validate:"required"`
	Template   string   `yaml:"template" validate:"required"`
	Weight     float64  `yaml:"weight" validate:"gt=0"`
	Outcomes   []string `yaml:"outcomes" validate:"required,min=1,dive,oneof=escalation fraud_resolved delivery_investigation general_inquiry"`
	Supporting bool     `yaml:"supporting"`
}

type patternFile struct {
	Patterns []patternSpec `yaml:"patterns"`
}

// Pattern is a compiled causal pattern
type Pattern struct {
	Category   Category
	Template   string
	Weight     float64
	Outcomes   []Outcome
	Supporting bool

	re *regexp.Regexp
}

// appliesTo reports whether the pattern is scoped to the given outcome
func (p *Pattern) appliesTo(outcome Outcome) bool {
	for _, o := range p.Outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

// PatternSet is the immutable, compiled pattern vocabulary. Loaded once at
// process start and passed explicitly to each analyzer.
type PatternSet struct {
	patterns []Pattern
}

// LoadPatterns parses, validates and compiles a YAML pattern file.
// Any failure is a *PatternError wrapping the underlying cause.
func LoadPatterns(data []byte) (*PatternSet, error) {
	var file patternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &PatternError{Err: fmt.Errorf("failed to parse pattern file: %w", err)}
	}
	if len(file.Patterns) == 0 {
		return nil, &PatternError{Err: fmt.Errorf("pattern file defines no patterns")}
	}

	validate := validator.New()
	set := &PatternSet{patterns: make([]Pattern, 0, len(file.Patterns))}

	for _, spec := range file.Patterns {
		if err := validate.Struct(spec); err != nil {
			return nil, &PatternError{Category: spec.Category, Regex: spec.Regex, Err: err}
		}

		re, err := regexp.Compile("(?i)" + spec.Regex)
		if err != nil {
			return nil, &PatternError{Category: spec.Category, Regex: spec.Regex, Err: err}
		}

		outcomes := make([]Outcome, len(spec.Outcomes))
		for i, o := range spec.Outcomes {
			outcomes[i] = Outcome(o)
		}

		set.patterns = append(set.patterns, Pattern{
			Category:   Category(spec.Category),
			Template:   spec.Template,
			Weight:     spec.Weight,
			Outcomes:   outcomes,
			Supporting: spec.Supporting,
			re:         re,
		})
	}

	return set, nil
}

// DefaultPatterns loads the embedded pattern vocabulary, or the file named
// by ROOTCAUSE_PATTERNS when set.
func DefaultPatterns() (*PatternSet, error) {
	if path := os.Getenv("ROOTCAUSE_PATTERNS"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &PatternError{Err: fmt.Errorf("failed to read pattern file %s: %w", path, err)}
		}
		return LoadPatterns(data)
	}
	return LoadPatterns(defaultPatternsYAML)
}

// Len returns the number of compiled patterns
func (ps *PatternSet) Len() int {
	return len(ps.patterns)
}

// Stats returns pattern counts per category
func (ps *PatternSet) Stats() map[Category]int {
	stats := make(map[Category]int)
	for _, p := range ps.patterns {
		stats[p.Category]++
	}
	return stats
}
