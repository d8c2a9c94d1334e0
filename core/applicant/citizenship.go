package applicant

import (
	"errors"
	"strings"
	"unicode"
)

var ErrMixedDigitScripts = errors.New("citizenship number mixes Devanagari and Latin digits")

// devanagariDigits maps ० through ९ onto their Latin forms.
var devanagariDigits = map[rune]rune{
	'०': '0', '१': '1', '२': '2', '३': '3', '४': '4',
	'५': '5', '६': '6', '७': '7', '८': '8', '९': '9',
}

// NormalizeCitizenshipNumber strips whitespace and transliterates Devanagari
// digits to Latin. A number mixing both scripts is rejected; non-digit
// characters (separators) pass through unchanged.
func NormalizeCitizenshipNumber(s string) (string, error) {
	var hasLatin, hasDevanagari bool
	for _, r := range s {
		if r >= '0' && r <= '9' {
			hasLatin = true
		}
		if _, ok := devanagariDigits[r]; ok {
			hasDevanagari = true
		}
	}
	if hasLatin && hasDevanagari {
		return "", ErrMixedDigitScripts
	}

	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if latin, ok := devanagariDigits[r]; ok {
			r = latin
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}
