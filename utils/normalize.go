package utils

import (
	"math"
	"regexp"
	"strings"
)

var (
	multiSpaceRegex = regexp.MustCompile(`\s{2,}`)
	anySpaceRegex   = regexp.MustCompile(`\s+`)
	pageNoiseRegex  = regexp.MustCompile(`(?i)P[aá]gina\s*\[?\s*\d+\s*\]?\s*de\s*\[?\s*\d+\s*\]?`)
	orderLineRegex  = regexp.MustCompile(`(?i)Orden.*`)
)

// Trim collapses inner whitespace runs to one space and trims the ends.
func Trim(s string) string {
	return strings.TrimSpace(multiSpaceRegex.ReplaceAllString(s, " "))
}

// CleanDocumentText joins page texts and removes the noise SAT PDFs carry:
// page counters and the trailing "Orden ..." listing headers.
func CleanDocumentText(pages []string) string {
	return CleanText(strings.Join(pages, "\n\n"))
}

// CleanText scrubs an already joined document text.
func CleanText(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	y := multiSpaceRegex.ReplaceAllString(text, " ")
	y = pageNoiseRegex.ReplaceAllString(y, "")
	y = orderLineRegex.ReplaceAllString(y, "")
	return strings.TrimSpace(y)
}

// NormalizeContractText flattens contract pages into one lowercase line
// with single spaces, the form every anchor pattern expects.
func NormalizeContractText(pages []string) string {
	text := strings.Join(pages, "\n")
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ToLower(text)
	return strings.TrimSpace(anySpaceRegex.ReplaceAllString(text, " "))
}

// TextQuality scores how much a blob looks like real text. Blank input
// scores -Inf so any OCR output beats it.
func TextQuality(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return math.Inf(-1)
	}
	letters := 0
	for _, r := range s {
		if isSpanishLetter(r) {
			letters++
		}
	}
	cleaned := []rune(s)
	for i, r := range cleaned {
		if !isSpanishLetter(r) && r != ' ' {
			cleaned[i] = ' '
		}
	}
	tokens := strings.Fields(string(cleaned))
	shortTokens := 0
	for _, t := range tokens {
		if len([]rune(t)) <= 2 {
			shortTokens++
		}
	}
	total := len([]rune(s))
	if total == 0 {
		total = 1
	}
	nTokens := len(tokens)
	if nTokens == 0 {
		nTokens = 1
	}
	score := float64(letters)/float64(total)*100.0 - float64(shortTokens)/float64(nTokens)*30.0
	if len([]rune(s)) > 500 {
		score += 10.0
	}
	return score
}

func isSpanishLetter(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return true
	}
	switch r {
	case 'Á', 'É', 'Í', 'Ó', 'Ú', 'Ü', 'Ñ', 'á', 'é', 'í', 'ó', 'ú', 'ü', 'ñ':
		return true
	}
	return false
}
