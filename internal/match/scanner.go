// Package match finds occurrences of a target word in noisy speech
// transcripts.
//
// A scan runs in two passes. Compound patterns are matched first and their
// spans are blanked out of a working copy of the text; the remaining tokens
// are then compared against the lexicon, by substring containment and
// otherwise by Ratcliff/Obershelp similarity. Every hit is its own Match, so a
// single utterance can produce several detections.
package match

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultThreshold is the minimum similarity for a fuzzy match.
	DefaultThreshold = 0.6

	// PatternConfidence is the fixed score of a pattern match.
	PatternConfidence = 0.95

	minTokenLength = 3
)

// Method names the strategy that produced a Match.
type Method string

const (
	MethodPattern Method = "pattern"
	MethodDirect  Method = "direct"
	MethodFuzzy   Method = "fuzzy"
)

// Span is a half-open byte range in the normalized transcript.
type Span struct {
	Start int
	End   int
}

// Match is one detected occurrence.
type Match struct {
	// Text is the matched text as it appeared in the normalized transcript.
	Text string
	// Target is the canonical word the occurrence counts as.
	Target string
	// Entry is the lexicon spelling that matched. Empty for pattern matches.
	Entry      string
	Confidence float64
	Method     Method
	// Span is only meaningful when Method is MethodPattern.
	Span Span
}

// HasSpan reports whether m carries a position in the transcript.
func (m Match) HasSpan() bool {
	return m.Method == MethodPattern
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLexicon replaces the default lexicon.
func WithLexicon(lex Lexicon) Option {
	return func(s *Scanner) {
		s.lexicon = lex
	}
}

// WithPatterns replaces the default pattern table. Passing no patterns
// disables the pattern pass.
func WithPatterns(patterns ...Pattern) Option {
	return func(s *Scanner) {
		s.patterns = patterns
	}
}

// Scanner is read-only after construction and safe for concurrent use.
type Scanner struct {
	lexicon  Lexicon
	patterns []Pattern
}

// NewScanner returns a Scanner using the default lexicon and pattern table
// unless overridden by opts.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		lexicon:  DefaultLexicon(),
		patterns: DefaultPatterns(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.lexicon.Canonical == "" {
		s.lexicon.Canonical = Canonical
	}
	return s
}

// Lexicon returns the scanner's lexicon.
func (s *Scanner) Lexicon() Lexicon {
	return s.lexicon
}

// Scan returns every occurrence of the target in transcript: pattern matches
// in discovery order followed by word matches in token order. It never fails;
// text without a hit yields an empty result.
func (s *Scanner) Scan(transcript string, threshold float64) []Match {
	text := strings.ToLower(strings.TrimSpace(transcript))
	if text == "" {
		return nil
	}

	matches := s.scanPatterns(text)
	working := blankSpans(text, matches)

	for _, token := range strings.Fields(working) {
		if m, ok := s.scanToken(token, threshold); ok {
			matches = append(matches, m)
		}
	}
	return matches
}

func (s *Scanner) scanPatterns(text string) []Match {
	var matches []Match
	for _, p := range s.patterns {
		for _, loc := range p.Expr.FindAllStringIndex(text, -1) {
			matches = append(matches, Match{
				Text:       text[loc[0]:loc[1]],
				Target:     p.Target,
				Confidence: PatternConfidence,
				Method:     MethodPattern,
				Span:       Span{Start: loc[0], End: loc[1]},
			})
		}
	}
	return matches
}

// blankSpans returns a copy of text with every pattern span replaced by the
// same number of spaces. Spans are applied from the highest start offset
// down so earlier offsets stay valid.
func blankSpans(text string, matches []Match) string {
	if len(matches) == 0 {
		return text
	}

	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, m.Span)
	}
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start > spans[j].Start
	})

	working := []byte(text)
	for _, sp := range spans {
		for i := sp.Start; i < sp.End; i++ {
			working[i] = ' '
		}
	}
	return string(working)
}

func (s *Scanner) scanToken(token string, threshold float64) (Match, bool) {
	clean := cleanToken(token)
	if utf8.RuneCountInString(clean) < minTokenLength {
		return Match{}, false
	}

	for _, entry := range s.lexicon.Entries {
		if strings.Contains(clean, entry) || strings.Contains(entry, clean) {
			return Match{
				Text:       token,
				Target:     s.lexicon.Canonical,
				Entry:      entry,
				Confidence: 1,
				Method:     MethodDirect,
			}, true
		}
	}

	for _, entry := range s.lexicon.Entries {
		if ratio := Ratio(clean, entry); ratio >= threshold {
			return Match{
				Text:       token,
				Target:     s.lexicon.Canonical,
				Entry:      entry,
				Confidence: ratio,
				Method:     MethodFuzzy,
			}, true
		}
	}

	return Match{}, false
}

func cleanToken(token string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, token)
}
