package match

import (
	"fmt"
	"regexp"
)

// Canonical is the word every detection is counted as.
const Canonical = "jabroni"

// Lexicon is an ordered list of known spellings the recognizer produces for
// a single canonical word. Order decides which entry wins for a token.
type Lexicon struct {
	Canonical string
	Entries   []string
}

// Pattern collapses a multi-token or compound mis-transcription into one
// detection of Target.
type Pattern struct {
	Expr   *regexp.Regexp
	Target string
}

// PatternSpec is the uncompiled form of a Pattern.
type PatternSpec struct {
	Expr   string
	Target string
}

// DefaultLexicon returns the built-in spellings of "jabroni" as heard by
// small offline models.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Canonical: Canonical,
		Entries: []string{
			"jabroni", "jabrone", "jabroney", "jaboni", "jaboney",
			"gibron", "gibrone", "gibroni", "giboney",
			"jibron", "jibrone", "jibroni", "jiboney",
			"jabro", "gibro", "jibro",
		},
	}
}

var defaultPatternSpecs = []PatternSpec{
	// two words that together sound like the target
	{Expr: `(jeb|job|chub|cheb|jab|geb|gib)[\s\p{Z}]+(ron|ronnie|roni|broni|brone)`, Target: Canonical},
	{Expr: `(gibber|gibbon|jabber)[\s\p{Z}]+(ron|ronnie|roni)`, Target: Canonical},
	{Expr: `(job|jeb|jab|gab|gib)[\s\p{Z}]+(bron|bronnie|brony)`, Target: Canonical},

	// single-word spellings the word pass would only catch fuzzily
	{Expr: `jabronny|jabrony|jebroni|gibroni|jabbroni`, Target: Canonical},
	{Expr: `gibronny|gibrony|jobronny|jebrony`, Target: Canonical},
}

var defaultPatterns = MustCompilePatterns(defaultPatternSpecs)

// DefaultPatterns returns the built-in pattern table in priority order.
func DefaultPatterns() []Pattern {
	out := make([]Pattern, len(defaultPatterns))
	copy(out, defaultPatterns)
	return out
}

// CompilePatterns compiles specs in order.
func CompilePatterns(specs []PatternSpec) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(specs))
	for i, spec := range specs {
		expr, err := regexp.Compile(spec.Expr)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %d (%q): %w", i, spec.Expr, err)
		}
		patterns = append(patterns, Pattern{Expr: expr, Target: spec.Target})
	}
	return patterns, nil
}

// MustCompilePatterns is like CompilePatterns but panics on an invalid
// expression. It is meant for package-level tables.
func MustCompilePatterns(specs []PatternSpec) []Pattern {
	patterns, err := CompilePatterns(specs)
	if err != nil {
		panic(err)
	}
	return patterns
}
