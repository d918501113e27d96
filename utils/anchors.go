package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// MoneyRegex matches peso amounts like "$ 1,234,567.89" or "$1 000".
var MoneyRegex = regexp.MustCompile(`\$\s*\d{1,3}(?:[ ,]\d{3})*(?:\.\d{2})?`)

// PercentRegex matches percentages like "3.5 %".
var PercentRegex = regexp.MustCompile(`\b\d{1,3}(?:\.\d+)?\s*%`)

// AnchorPreference picks which value hit wins inside a window.
type AnchorPreference int

const (
	PreferNearest AnchorPreference = iota
	PreferFirst
	PreferLast
)

type span struct {
	start, end int
	value      string
}

func allMatches(text string, re *regexp.Regexp) []span {
	idx := re.FindAllStringIndex(text, -1)
	out := make([]span, 0, len(idx))
	for _, p := range idx {
		out = append(out, span{start: p[0], end: p[1], value: text[p[0]:p[1]]})
	}
	return out
}

// FindNearAnchor locates the first anchor match and searches for value
// matches inside a window of chars on both sides of it. It returns the
// picked value, the searched window and whether a value was found. A
// missing anchor returns ("", "", false); an anchor without values
// returns ("", window, false).
func FindNearAnchor(text string, anchor, value *regexp.Regexp, window int, pref AnchorPreference) (string, string, bool) {
	loc := anchor.FindStringIndex(text)
	if loc == nil {
		return "", "", false
	}
	start := max(0, loc[0]-window)
	end := min(len(text), loc[1]+window)
	chunk := text[start:end]

	hits := allMatches(chunk, value)
	if len(hits) == 0 {
		return "", chunk, false
	}

	var pick span
	switch pref {
	case PreferFirst:
		pick = hits[0]
	case PreferLast:
		pick = hits[len(hits)-1]
	default:
		anchorCenter := float64(loc[0]+loc[1])/2 - float64(start)
		pick = hits[0]
		best := -1.0
		for _, h := range hits {
			d := float64(h.start+h.end)/2 - anchorCenter
			if d < 0 {
				d = -d
			}
			if best < 0 || d < best {
				best = d
				pick = h
			}
		}
	}
	return strings.TrimSpace(pick.value), chunk, true
}

// FindBeforeAnchor searches the window strictly before the first anchor
// match and returns the last value hit in it.
func FindBeforeAnchor(text string, anchor, value *regexp.Regexp, window int) (string, string, bool) {
	loc := anchor.FindStringIndex(text)
	if loc == nil {
		return "", "", false
	}
	end := loc[0]
	start := max(0, end-window)
	chunk := text[start:end]

	hits := allMatches(chunk, value)
	if len(hits) == 0 {
		return "", chunk, false
	}
	return strings.TrimSpace(hits[len(hits)-1].value), chunk, true
}

// MoneyToNumber parses a matched peso amount; "" or garbage yields nil.
func MoneyToNumber(x string) *float64 {
	if x == "" {
		return nil
	}
	s := strings.NewReplacer("$", "", " ", "", "\t", "", ",", "").Replace(x)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// PercentToNumber parses a matched percentage; "" or garbage yields nil.
func PercentToNumber(x string) *float64 {
	if x == "" {
		return nil
	}
	s := strings.TrimSpace(strings.ReplaceAll(x, "%", ""))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
