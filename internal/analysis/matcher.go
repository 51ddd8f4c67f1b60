package analysis

import (
	"sort"

	"github.com/latticehq/rootcause/internal/corpus"
)

// Match is one weighted causal fragment extracted from transcript text
type Match struct {
	Category    Category
	MatchedText string
	Groups      []string
	Weight      float64
	Position    int // byte offset of the match in the transcript text
	Supporting  bool
	Fragment    string // pattern template rendered with captured groups
}

// Match applies every pattern scoped to the outcome against the transcript's
// concatenated turn text. All non-overlapping matches per pattern are kept.
// An empty result means "no recognized cause", which is valid output.
func (ps *PatternSet) Match(t *corpus.Transcript, outcome Outcome) []Match {
	text := t.FullText()
	if text == "" {
		return nil
	}

	var matches []Match
	for i := range ps.patterns {
		p := &ps.patterns[i]
		if !p.appliesTo(outcome) {
			continue
		}

		locs := p.re.FindAllStringSubmatchIndex(text, -1)
		for _, loc := range locs {
			groups := make([]string, 0, len(loc)/2-1)
			for g := 1; g < len(loc)/2; g++ {
				start, end := loc[2*g], loc[2*g+1]
				if start < 0 {
					groups = append(groups, "")
					continue
				}
				groups = append(groups, text[start:end])
			}

			matches = append(matches, Match{
				Category:    p.Category,
				MatchedText: text[loc[0]:loc[1]],
				Groups:      groups,
				Weight:      p.Weight,
				Position:    loc[0],
				Supporting:  p.Supporting,
				Fragment:    string(p.re.ExpandString(nil, p.Template, text, loc)),
			})
		}
	}

	sortMatches(matches)
	return matches
}

// sortMatches orders matches by weight descending, then by first-occurrence
// position ascending, for deterministic composition.
func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Weight != matches[j].Weight {
			return matches[i].Weight > matches[j].Weight
		}
		return matches[i].Position < matches[j].Position
	})
}
