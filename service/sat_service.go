package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/haycash/toolbox/catalog"
	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/utils"
)

// ActivityPicker is the slice of the LLM client the matcher uses. A nil
// picker turns the embedding and tie-break stages off; the lexical chain
// still runs.
type ActivityPicker interface {
	Embeddings(ctx context.Context, texts []string) ([][]float32, error)
	ChooseBestActivity(ctx context.Context, industry string, options []string) (int, error)
}

// SATService resolves a taxpayer's free-text activity to the closest
// entry of the SAT economic-activity catalog.
type SATService struct {
	store  *catalog.Store
	llm    ActivityPicker
	cache  *gocache.Cache
	logger *slog.Logger

	embMu  sync.Mutex
	embeds map[dto.PersonType][][]float32
}

func NewSATService(store *catalog.Store, llm ActivityPicker, c *gocache.Cache, logger *slog.Logger) *SATService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SATService{
		store:  store,
		llm:    llm,
		cache:  c,
		logger: logger,
		embeds: map[dto.PersonType][][]float32{},
	}
}

const lexicalShortlist = 40

// MatchActivity returns the catalog "valor" that best matches the
// activity description, or "" when nothing can be matched. Results are
// cached per (person type, raw description); misses caused by an empty
// catalog are not cached so a later reload can still serve them.
func (s *SATService) MatchActivity(ctx context.Context, industry string, tipo dto.PersonType) string {
	if strings.TrimSpace(industry) == "" {
		return ""
	}
	if tipo != dto.PersonFisica && tipo != dto.PersonMoral {
		return ""
	}

	cacheKey := string(tipo) + "||" + industry
	if s.cache != nil {
		if v, found := s.cache.Get(cacheKey); found {
			if res, ok := v.(string); ok {
				return res
			}
		}
	}

	rows := s.store.ForType(tipo)
	if len(rows) == 0 {
		return ""
	}

	if res, ok := s.matchByEmbedding(ctx, industry, tipo, rows); ok {
		s.remember(cacheKey, res)
		return res
	}

	qNorm := utils.NormalizeForMatch(industry)
	if qNorm == "" {
		return ""
	}

	// lexical pre-filter: keep the 40 closest by Jaro-Winkler distance
	type scored struct {
		idx  int
		dist float64
	}
	ranked := make([]scored, len(rows))
	for i, row := range rows {
		ranked[i] = scored{idx: i, dist: utils.JaroWinklerDistance(qNorm, row.Norm)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].dist < ranked[j].dist })
	if len(ranked) > lexicalShortlist {
		ranked = ranked[:lexicalShortlist]
	}

	// narrow to candidates sharing a strong token with the query; when
	// none do, keep the whole shortlist
	cands := ranked
	if qTokens := utils.MatchTokens(qNorm); len(qTokens) > 0 {
		var withOverlap []scored
		for _, c := range ranked {
			if tokenOverlap(qTokens, rows[c.idx].Tokens) > 0 {
				withOverlap = append(withOverlap, c)
			}
		}
		if len(withOverlap) > 0 {
			cands = withOverlap
		}
	}
	if len(cands) == 0 {
		return ""
	}

	if s.llm != nil {
		descs := make([]string, len(cands))
		for i, c := range cands {
			descs[i] = rows[c.idx].Desc
		}
		pick, err := s.llm.ChooseBestActivity(ctx, industry, descs)
		if err != nil {
			s.logger.Warn("sat.llm_pick_failed", "error", err)
		} else if pick >= 1 && pick <= len(cands) {
			res := rows[cands[pick-1].idx].Valor
			s.remember(cacheKey, res)
			return res
		}
	}

	// candidates are sorted by distance, so the closest is first
	res := rows[cands[0].idx].Valor
	s.remember(cacheKey, res)
	return res
}

func (s *SATService) remember(key, val string) {
	if s.cache != nil {
		s.cache.Set(key, val, gocache.DefaultExpiration)
	}
}

// matchByEmbedding compares the query embedding against the whole
// catalog and returns the most similar entry. Any failure along the way
// just hands control back to the lexical chain.
func (s *SATService) matchByEmbedding(ctx context.Context, industry string, tipo dto.PersonType, rows []catalog.Activity) (string, bool) {
	if s.llm == nil {
		return "", false
	}

	catEmb := s.catalogEmbeddings(ctx, tipo, rows)
	if catEmb == nil {
		return "", false
	}

	qEmb, err := s.llm.Embeddings(ctx, []string{industry})
	if err != nil || len(qEmb) == 0 {
		if err != nil {
			s.logger.Warn("sat.query_embedding_failed", "error", err)
		}
		return "", false
	}

	query := qEmb[0]
	var qNormSq float64
	for _, v := range query {
		qNormSq += float64(v) * float64(v)
	}
	if qNormSq == 0 {
		return "", false
	}

	best := -1
	bestSim := 0.0
	for i, emb := range catEmb {
		sim := cosineSimilarity(emb, query)
		if best < 0 || sim > bestSim {
			best = i
			bestSim = sim
		}
	}
	if best < 0 {
		return "", false
	}
	return rows[best].Valor, true
}

func (s *SATService) catalogEmbeddings(ctx context.Context, tipo dto.PersonType, rows []catalog.Activity) [][]float32 {
	s.embMu.Lock()
	emb, ok := s.embeds[tipo]
	s.embMu.Unlock()
	if ok {
		return emb
	}

	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = row.Desc
	}
	emb, err := s.llm.Embeddings(ctx, texts)
	if err != nil || len(emb) != len(rows) {
		// not memoized: a transient API failure should not disable the
		// stage for the rest of the process
		s.logger.Warn("sat.catalog_embeddings_unavailable", "tipo", string(tipo), "error", err)
		return nil
	}

	s.embMu.Lock()
	s.embeds[tipo] = emb
	s.embMu.Unlock()
	s.logger.Info("sat.catalog_embeddings_ready", "tipo", string(tipo), "rows", len(rows))
	return emb
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + 1e-9)
}

func tokenOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	count := 0
	for _, t := range b {
		if set[t] {
			count++
		}
	}
	return count
}
