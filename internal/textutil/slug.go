package textutil

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldASCII strips combining marks so "é" becomes "e".
func FoldASCII(value string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, value)
	if err != nil {
		return value
	}
	return folded
}

// Slug converts prompt text to a file-name fragment: spaces become hyphens and
// every character other than an ASCII letter or hyphen is dropped. Runs of
// hyphens collapse to one, so a slug never contains "--", the delimiter that
// introduces action markers.
func Slug(value string) string {
	value = strings.ReplaceAll(FoldASCII(value), " ", "-")
	var b strings.Builder
	b.Grow(len(value))
	prevHyphen := false
	for _, r := range value {
		switch {
		case r == '-':
			if !prevHyphen {
				b.WriteRune(r)
			}
			prevHyphen = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
			prevHyphen = false
		}
	}
	return b.String()
}

// IndexedFileName returns "NNN_<slug>.ext" for a 1-based index.
func IndexedFileName(index int, text, ext string) string {
	return fmt.Sprintf("%03d_%s%s", index, Slug(text), ext)
}

// Truncate shortens value to at most limit runes.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}

var titleCaser = cases.Title(language.English)

// Title renders an identifier such as "chiaroscurize" for display.
func Title(value string) string {
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}
