package routerisk

import (
	"regexp"
	"strings"
)

// NYC street signs and geocoders disagree on spelled-out ordinals, so both
// forms are folded into the numeric one before fuzzy comparison. Only the
// first three ordinals have a common spelled-out form; higher ones ("4TH",
// "42ND") already arrive numeric from both sides.
var ordinalWords = []struct {
	pattern *regexp.Regexp
	numeric string
}{
	{regexp.MustCompile(`\bFIRST\b`), "1ST"},
	{regexp.MustCompile(`\bSECOND\b`), "2ND"},
	{regexp.MustCompile(`\bTHIRD\b`), "3RD"},
}

// NormalizeStreetName upper-cases, trims, and collapses whitespace in a
// street name and rewrites spelled-out ordinals to their numeric form, so
// "First Avenue" and "1ST AVENUE" compare equal under fuzzy matching.
func NormalizeStreetName(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), " ")
	for _, o := range ordinalWords {
		s = o.pattern.ReplaceAllString(s, o.numeric)
	}
	return s
}
