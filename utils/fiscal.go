package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/haycash/toolbox/dto"
)

var (
	alnumOnlyRegex   = regexp.MustCompile(`[^A-Za-z0-9]`)
	spanishDateRegex = regexp.MustCompile(`([0-9]{1,2})\s+DE\s+([A-ZÁÉÍÓÚÑ]+)\s+DE\s+([0-9]{4})`)
	qrRFCRegex       = regexp.MustCompile(`D3=\d*_([A-ZÑ&0-9]{12,13})`)
)

var spanishMonths = map[string]int{
	"ENERO": 1, "FEBRERO": 2, "MARZO": 3, "ABRIL": 4, "MAYO": 5, "JUNIO": 6,
	"JULIO": 7, "AGOSTO": 8, "SEPTIEMBRE": 9, "OCTUBRE": 10, "NOVIEMBRE": 11, "DICIEMBRE": 12,
}

// CleanRFC uppercases and drops everything outside A-Z and digits.
func CleanRFC(rfc string) string {
	return alnumOnlyRegex.ReplaceAllString(strings.ToUpper(rfc), "")
}

// RFCFromQR pulls the RFC out of a SAT validador QR payload, the
// .../validadorqr.jsf?D1=10&D2=1&D3=<idcif>_<rfc> URL printed on every
// constancia. Payloads without that shape yield "".
func RFCFromQR(payload string) string {
	m := qrRFCRegex.FindStringSubmatch(strings.ToUpper(payload))
	if m == nil {
		return ""
	}
	return m[1]
}

// PersonTypeFromRFC maps the cleaned RFC length to the person type:
// 13 characters is a persona física, 12 a persona moral.
func PersonTypeFromRFC(rfc string) dto.PersonType {
	switch len(CleanRFC(rfc)) {
	case 13:
		return dto.PersonFisica
	case 12:
		return dto.PersonMoral
	}
	return dto.PersonUnknown
}

// InferCentury resolves a two-digit year against today: years at or
// below the current two-digit year land in the 2000s, the rest in the
// 1900s.
func InferCentury(yy string) (int, bool) {
	y, err := strconv.Atoi(yy)
	if err != nil {
		return 0, false
	}
	cur := time.Now().Year() % 100
	if y <= cur {
		return 2000 + y, true
	}
	return 1900 + y, true
}

// BirthdayFromRFC derives an ISO date from a 13-char RFC; any other
// length yields "".
func BirthdayFromRFC(rfc string) string {
	r := alnumOnlyRegex.ReplaceAllString(rfc, "")
	if len(r) != 13 {
		return ""
	}
	return dateFromYYMMDD(r[4:6], r[6:8], r[8:10])
}

// BirthdayFromCURP derives an ISO date from a CURP of at least 10 chars.
func BirthdayFromCURP(curp string) string {
	c := alnumOnlyRegex.ReplaceAllString(curp, "")
	if len(c) < 10 {
		return ""
	}
	return dateFromYYMMDD(c[4:6], c[6:8], c[8:10])
}

func dateFromYYMMDD(yy, mm, dd string) string {
	year, ok := InferCentury(yy)
	if !ok {
		return ""
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return ""
	}
	d, err := strconv.Atoi(dd)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, m, d)
}

// NormalizeSpanishDate turns "3 DE MARZO DE 2021" into "2021-03-03".
// Anything that does not look like a Spanish long date passes through
// unchanged.
func NormalizeSpanishDate(x string) string {
	if x == "" {
		return x
	}
	up := strings.ToUpper(anySpaceRegex.ReplaceAllString(x, " "))
	m := spanishDateRegex.FindStringSubmatch(up)
	if m == nil {
		return x
	}
	d, _ := strconv.Atoi(m[1])
	month := strings.NewReplacer("Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U").Replace(m[2])
	num, ok := spanishMonths[month]
	if !ok {
		return x
	}
	return fmt.Sprintf("%s-%02d-%02d", m[3], num, d)
}

var flexibleDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
}

// ParseFlexibleDate accepts the date shapes the lead snapshots carry.
func ParseFlexibleDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\uFEFF", ""))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range flexibleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
