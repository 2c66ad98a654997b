package denest

import (
	"math"
	"regexp"
	"strings"
)

// FindItem returns the string form of the least nested value whose key contains substr.
// Equally nested matches resolve to the first one in insertion order.
// It returns an empty string when nothing matches.
func FindItem(r *Record, substr string) string {
	return findItem(r, func(k string) bool { return strings.Contains(k, substr) })
}

// FindItems returns the string form of every value whose key contains substr, in insertion order.
func FindItems(r *Record, substr string) []string {
	return findItems(r, func(k string) bool { return strings.Contains(k, substr) })
}

// FindItemPattern behaves like FindItem with a regular expression searched anywhere in the key.
// An invalid pattern matches nothing.
func FindItemPattern(r *Record, pattern string) string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	return findItem(r, re.MatchString)
}

// FindItemsPattern behaves like FindItems with a regular expression searched anywhere in the key.
// An invalid pattern matches nothing.
func FindItemsPattern(r *Record, pattern string) []string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return []string{}
	}
	return findItems(r, re.MatchString)
}

// Depth returns how nested a denested key is.
func Depth(key string) int {
	return strings.Count(key, Separator)
}

func findItem(r *Record, match func(string) bool) string {
	out := ""
	depth := math.MaxInt
	for k, v := range r.All() {
		if !match(k) {
			continue
		}
		if d := Depth(k); d < depth {
			depth = d
			out = v.String()
		}
	}
	return out
}

func findItems(r *Record, match func(string) bool) []string {
	out := []string{}
	for k, v := range r.All() {
		if match(k) {
			out = append(out, v.String())
		}
	}
	return out
}
