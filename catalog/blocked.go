package catalog

import (
	"encoding/csv"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/haycash/toolbox/utils"
)

// LoadBlockedRFCs reads the blocked-client file (cat_credit_id_rfc.csv)
// and returns the normalized RFC set. A missing file is an empty set.
// The file arrives from different export tools, so both UTF-8 with BOM
// and latin-1 payloads are accepted.
func LoadBlockedRFCs(path string) (map[string]bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}

	if !utf8.Valid(raw) {
		raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, err
		}
	}

	r := csv.NewReader(strings.NewReader(string(raw)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return map[string]bool{}, nil
	}

	col := blockedColumn(records)
	out := map[string]bool{}
	for _, rec := range records[1:] {
		if col >= len(rec) {
			continue
		}
		if rfc := utils.CleanRFC(rec[col]); rfc != "" {
			out[rfc] = true
		}
	}
	return out, nil
}

// blockedColumn picks the RFC column: an exact "rfc" header first, then
// any header containing "rfc", then the column with the most RFC-like
// values.
func blockedColumn(records [][]string) int {
	headers := records[0]
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
	}

	for i, h := range cleaned {
		if h == "rfc" {
			return i
		}
	}
	for i, h := range cleaned {
		if strings.Contains(h, "rfc") {
			return i
		}
	}

	best, bestCount := 0, -1
	for i := range headers {
		count := 0
		for _, rec := range records[1:] {
			if i < len(rec) && utils.CleanRFC(rec[i]) != "" {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = i, count
		}
	}
	return best
}
