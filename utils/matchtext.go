package utils

import (
	"regexp"
	"strings"
)

var (
	accentUpperReplacer = strings.NewReplacer(
		"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ü", "U", "Ñ", "N",
	)
	nonAlnumSpaceRegex = regexp.MustCompile(`[^A-Z0-9 ]`)
)

// NormalizeForMatch uppercases, transliterates Spanish accents and keeps
// only A-Z, digits and single spaces.
func NormalizeForMatch(s string) string {
	t := strings.ToUpper(s)
	t = accentUpperReplacer.Replace(t)
	t = nonAlnumSpaceRegex.ReplaceAllString(t, " ")
	return strings.TrimSpace(anySpaceRegex.ReplaceAllString(t, " "))
}

// MatchTokens splits on whitespace and keeps unique tokens of 4+ chars,
// input order preserved.
func MatchTokens(s string) []string {
	if s == "" {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, t := range strings.Fields(s) {
		if len(t) < 4 || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// JaroWinklerDistance is 1 minus the Jaro-Winkler similarity, so lower
// means closer.
func JaroWinklerDistance(a, b string) float64 {
	return 1.0 - JaroWinkler(a, b)
}

// JaroWinkler returns the Jaro-Winkler similarity of a and b in [0,1],
// with the standard 0.1 prefix scaling over at most 4 leading runes.
func JaroWinkler(a, b string) float64 {
	sim := jaroSimilarity(a, b)
	if sim == 0 {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prefix := 0
	for prefix < len(ra) && prefix < len(rb) && prefix < 4 && ra[prefix] == rb[prefix] {
		prefix++
	}
	return sim + float64(prefix)*0.1*(1.0-sim)
}

func jaroSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	n, m := len(ra), len(rb)
	if n == 0 && m == 0 {
		return 1
	}
	if n == 0 || m == 0 {
		return 0
	}

	window := max(n, m)/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, n)
	matchedB := make([]bool, m)
	matches := 0
	for i := 0; i < n; i++ {
		lo := max(0, i-window)
		hi := min(m-1, i+window)
		for j := lo; j <= hi; j++ {
			if matchedB[j] || ra[i] != rb[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < n; i++ {
		if !matchedA[i] {
			continue
		}
		for !matchedB[k] {
			k++
		}
		if ra[i] != rb[k] {
			transpositions++
		}
		k++
	}

	mf := float64(matches)
	return (mf/float64(n) + mf/float64(m) + (mf-float64(transpositions)/2.0)/mf) / 3.0
}
