package models

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WordsPerMinute is the assumed reading speed behind EstimateReadTime.
const WordsPerMinute = 200

// letters that NFKD does not decompose into an ASCII base
var transliterations = map[rune]string{
	'ß': "ss", 'æ': "ae", 'Æ': "AE", 'œ': "oe", 'Œ': "OE",
	'ø': "o", 'Ø': "O", 'đ': "d", 'Đ': "D", 'ł': "l", 'Ł': "L",
	'þ': "th", 'Þ': "TH", 'ð': "d", 'Ð': "D", '&': " and ",
}

// Slugify derives the URL slug of a title. Whitespace and hyphens separate
// words, other punctuation is dropped and accented letters lose their marks:
// "Hello, World!" -> "hello-world", "Crème brûlée" -> "creme-brulee".
func Slugify(title string) string {
	var expanded strings.Builder
	for _, r := range title {
		if t, ok := transliterations[r]; ok {
			expanded.WriteString(t)
			continue
		}
		expanded.WriteRune(r)
	}

	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripMarks, expanded.String())
	if err != nil {
		plain = expanded.String()
	}

	var slug strings.Builder
	pendingSep := false
	for _, r := range plain {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingSep && slug.Len() > 0 {
				slug.WriteByte('-')
			}
			pendingSep = false
			slug.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-':
			pendingSep = true
		}
	}
	return slug.String()
}

// EstimateReadTime formats the reading duration of body, e.g. "3 min read".
// Every started block of WordsPerMinute words counts as one minute.
func EstimateReadTime(body string) string {
	words := len(strings.Fields(body))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	return fmt.Sprintf("%d min read", minutes)
}
