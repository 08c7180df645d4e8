package match

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// nearMissFragments are pieces of the target that small models tend to emit
// on their own when they mishear it.
var nearMissFragments = []string{"jeb", "job", "chub", "ron", "bron", "jab", "gib"}

// NearMiss is a token that looks like the target but did not match.
type NearMiss struct {
	Token string
	// Fragment is the known fragment the token contains, if any.
	Fragment string
	// Phonetic is set when the token shares a Double Metaphone code with the
	// canonical target.
	Phonetic bool
	// Similarity is the Jaro-Winkler score against the canonical target.
	Similarity float64
}

// NearMisses lists the tokens of transcript that resemble the scanner's
// canonical target. It is a diagnostic for tuning the lexicon and is only
// meaningful for transcripts that produced no Match.
func (s *Scanner) NearMisses(transcript string) []NearMiss {
	text := strings.ToLower(strings.TrimSpace(transcript))
	if text == "" {
		return nil
	}

	target := s.lexicon.Canonical
	targetCodes := metaphoneCodes(target)

	var out []NearMiss
	for _, token := range strings.Fields(text) {
		clean := cleanToken(token)
		if utf8.RuneCountInString(clean) < minTokenLength {
			continue
		}

		miss := NearMiss{Token: clean}
		for _, frag := range nearMissFragments {
			if strings.Contains(clean, frag) {
				miss.Fragment = frag
				break
			}
		}
		for code := range metaphoneCodes(clean) {
			if _, ok := targetCodes[code]; ok {
				miss.Phonetic = true
				break
			}
		}
		if miss.Fragment == "" && !miss.Phonetic {
			continue
		}

		miss.Similarity = matchr.JaroWinkler(clean, target, false)
		out = append(out, miss)
	}
	return out
}

func metaphoneCodes(word string) map[string]struct{} {
	codes := make(map[string]struct{}, 2)
	primary, secondary := matchr.DoubleMetaphone(word)
	if primary != "" {
		codes[primary] = struct{}{}
	}
	if secondary != "" {
		codes[secondary] = struct{}{}
	}
	return codes
}
