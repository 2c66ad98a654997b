package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FixLatin1 repairs UTF-8 text that was decoded as ISO-8859-1 by an exporter.
// It returns s unchanged when the round trip fails.
func FixLatin1(s string) string {
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil || !utf8.Valid(b) {
		return s
	}
	return string(b)
}

// FixASCII drops every non ASCII rune from s.
func FixASCII(s string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })), s)
	if err != nil {
		return s
	}
	return out
}

// StripControl removes control, format and private use characters and applies NFKD normalization.
func StripControl(s string) string {
	t := transform.Chain(runes.Remove(runes.In(unicode.C)), norm.NFKD)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NFKD returns the compatibility decomposition of s.
func NFKD(s string) string {
	return norm.NFKD.String(s)
}

type monthReplacement struct {
	from, to string
}

// localizedMonths is ordered: the first entry found in the input is the only one replaced.
var localizedMonths = []monthReplacement{
	{"mrt", "mar"},
	{"mei", "may"},
	{"okt", "oct"},
}

// ReplaceMonth replaces the first occurrence of the first localized month abbreviation found in s
// by its English equivalent.
func ReplaceMonth(s string) string {
	for _, m := range localizedMonths {
		if strings.Contains(s, m.from) {
			return strings.Replace(s, m.from, m.to, 1)
		}
	}
	return s
}
