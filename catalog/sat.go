package catalog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/utils"
)

const (
	fisicasFile = "lista_PF.csv"
	moralesFile = "lista_PM.csv"
)

// Activity is one row of a SAT economic-activity catalog. Valor keeps
// the raw catalog value, which may carry "||" separated metadata after
// the description.
type Activity struct {
	Valor  string
	Desc   string
	Norm   string
	Tokens []string
}

var pipeSuffixRegex = regexp.MustCompile(`\|\|.*$`)

// NewActivity derives the matching fields from a raw catalog value.
func NewActivity(valor string) Activity {
	desc := pipeSuffixRegex.ReplaceAllString(valor, "")
	norm := utils.NormalizeForMatch(desc)
	return Activity{
		Valor:  valor,
		Desc:   desc,
		Norm:   norm,
		Tokens: utils.MatchTokens(norm),
	}
}

// Store loads the persona física and persona moral activity catalogs
// from a directory and keeps them in memory. Loading is lazy and
// happens at most once; a missing or broken file yields an empty
// catalog rather than an error, so extraction keeps working without
// SAT matching.
type Store struct {
	dir string

	once    sync.Once
	fisicas []Activity
	morales []Activity
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Fisicas returns the persona física catalog.
func (s *Store) Fisicas() []Activity {
	s.once.Do(s.load)
	return s.fisicas
}

// Morales returns the persona moral catalog.
func (s *Store) Morales() []Activity {
	s.once.Do(s.load)
	return s.morales
}

// ForType picks the catalog for a person type. Anything that is not
// moral uses the física catalog.
func (s *Store) ForType(tipo dto.PersonType) []Activity {
	if tipo == dto.PersonMoral {
		return s.Morales()
	}
	return s.Fisicas()
}

func (s *Store) load() {
	s.fisicas = readActivities(filepath.Join(s.dir, fisicasFile))
	s.morales = readActivities(filepath.Join(s.dir, moralesFile))
}

func readActivities(path string) []Activity {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil || len(records) < 2 {
		return nil
	}

	// The valor column holds the activity; without it the first
	// column does.
	col := 0
	for i, h := range records[0] {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")), "valor") {
			col = i
			break
		}
	}

	out := make([]Activity, 0, len(records)-1)
	for _, rec := range records[1:] {
		if col >= len(rec) {
			continue
		}
		out = append(out, NewActivity(rec[col]))
	}
	return out
}
