package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics ("Pecuária" -> "pecuaria").
// Compatibility decomposition also turns "m²" into "m2".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Normalize folds text and splits it into matching tokens. Punctuation is
// dropped except '.' and ',' between two digits, which belong to numbers.
func Normalize(text string) []string {
	folded := []rune(Fold(text))
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		case (r == '.' || r == ',') && i > 0 && i+1 < len(folded) &&
			unicode.IsDigit(folded[i-1]) && unicode.IsDigit(folded[i+1]):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// NormalizeJoined returns the tokens of text joined by single spaces.
func NormalizeJoined(text string) string {
	return strings.Join(Normalize(text), " ")
}
