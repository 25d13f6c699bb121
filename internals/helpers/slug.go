package helper

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Slugify turns free text into [a-z0-9-]: diacritics are dropped (drezúra → drezura),
// runs of "-" collapse, ends are trimmed. Empty input stays "".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = reNonAlnum.ReplaceAllString(string(buf), "-")
	s = reHyphen.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeDiscipline: "Show Jumping" → "show-jumping". Used by slots, rules, horses and trainers
// so pricing matches line up.
func NormalizeDiscipline(s string) string {
	return Slugify(s)
}

// NormalizeDisciplines: normalize, drop empties & duplicates, keep order.
func NormalizeDisciplines(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, d := range in {
		d = NormalizeDiscipline(d)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
