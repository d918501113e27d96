package service

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/haycash/toolbox/catalog"
	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/utils"
)

// allowedLeadStatuses are the optools pipeline states the review
// screen works with; anything else drops out of both views.
var allowedLeadStatuses = map[string]bool{
	"Lead calificado":         true,
	"Oferta generada":         true,
	"Oferta enviada":          true,
	"Oferta aceptada":         true,
	"En espera de documentos": true,
	"No perfila":              true,
	"Comité":                  true,
}

// leadDateLayouts are the created_mx formats seen across snapshot
// exports. Fractional seconds parse without a layout of their own.
var leadDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02T15:04:05",
}

// LeadsService serves the lead review screen: a snapshot CSV filtered
// against the blocked-client catalog and enriched with review marks.
type LeadsService struct {
	snapshotPath string
	blockedPath  string
	store        *ReviewStore
	logger       *slog.Logger
}

func NewLeadsService(snapshotPath, blockedPath string, store *ReviewStore, logger *slog.Logger) *LeadsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeadsService{
		snapshotPath: snapshotPath,
		blockedPath:  blockedPath,
		store:        store,
		logger:       logger,
	}
}

// List returns one filtered view of the snapshot (pending or reviewed)
// plus the funnel KPIs. KPIs run over the whole enriched snapshot,
// narrowed only by the date range and status selection.
func (s *LeadsService) List(req *dto.LeadsQueryRequest) (*dto.LeadsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	leads, err := s.enrichedLeads()
	if err != nil {
		return nil, err
	}

	kpis := leadKPIs(leads, req.From, req.To, req.Statuses)

	view := make([]dto.Lead, 0, len(leads))
	for _, l := range leads {
		if l.Revisado == req.Reviewed {
			view = append(view, l)
		}
	}
	view = filterLeads(view, req)

	s.logger.Info("leads.listed",
		"snapshot", len(leads),
		"view", len(view),
		"reviewed", req.Reviewed)

	return &dto.LeadsResponse{Leads: view, KPIs: kpis, Total: len(view)}, nil
}

// MarkReviewed stamps the reviewer on the given leads.
func (s *LeadsService) MarkReviewed(req *dto.LeadsReviewRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.store.Mark(req.LeadIDs, req.ReviewedBy); err != nil {
		return err
	}
	s.logger.Info("leads.marked", "count", len(req.LeadIDs), "reviewed_by", req.ReviewedBy)
	return nil
}

// ResetReviews clears every review mark.
func (s *LeadsService) ResetReviews() error {
	if err := s.store.Reset(); err != nil {
		return err
	}
	s.logger.Info("leads.reviews_reset")
	return nil
}

// enrichedLeads loads the snapshot, drops blocked RFCs and merges the
// review marks in.
func (s *LeadsService) enrichedLeads() ([]dto.Lead, error) {
	rows, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}

	blocked, err := catalog.LoadBlockedRFCs(s.blockedPath)
	if err != nil {
		return nil, err
	}
	marks, err := s.store.All()
	if err != nil {
		return nil, err
	}

	out := make([]dto.Lead, 0, len(rows))
	for _, l := range rows {
		if blocked[utils.CleanRFC(l.RFC)] {
			continue
		}
		l.PersonaTipo = personaTipo(l.RFC, l.PersonaTipo)
		l.VentasTPV = leadMoney(l.VentasTPV)
		l.Depositos = leadMoney(l.Depositos)
		l.VentaFacturada = leadMoney(l.VentaFacturada)
		l.MontoCreditosAbiertos = leadMoney(l.MontoCreditosAbiertos)
		l.DeudaVencidaBuro = leadMoney(l.DeudaVencidaBuro)
		if by, ok := marks[l.LeadID]; ok {
			l.ReviewedBy = by
			l.Revisado = true
		}
		out = append(out, l)
	}
	return out, nil
}

// loadSnapshot reads and normalizes the snapshot CSV. A missing file
// is an empty snapshot. Money columns keep their raw cell values here;
// enrichment formats them.
func (s *LeadsService) loadSnapshot() ([]dto.Lead, error) {
	raw, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
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
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	cell := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	leads := make([]dto.Lead, 0, len(records)-1)
	for _, rec := range records[1:] {
		leads = append(leads, dto.Lead{
			LeadID:                cell(rec, "lead_id"),
			Nombre:                cell(rec, "nombre"),
			RFC:                   cell(rec, "rfc"),
			Giro:                  cell(rec, "giro"),
			Broker:                cell(rec, "broker"),
			Analista:              cell(rec, "analista"),
			Estatus:               cell(rec, "estatus_optools"),
			PersonaTipo:           cell(rec, "persona_tipo"),
			LostReason:            cell(rec, "lost_reason_name"),
			VentasTPV:             cell(rec, "ventas_tpv"),
			Depositos:             cell(rec, "depositos"),
			VentaFacturada:        cell(rec, "venta_facturada"),
			MontoCreditosAbiertos: cell(rec, "monto_creditos_abiertos"),
			DeudaVencidaBuro:      cell(rec, "deuda_vencida_buro"),
			CreatedMX:             cell(rec, "created_mx"),
			Concentracion12Meses:  cell(rec, "concentracion_12meses"),
		})
	}
	return leads, nil
}

// filterLeads applies the review screen's filters: allowed statuses, a
// hard 90-day cutoff that keeps unparseable dates, the user's date
// range on the pending view only, and the status selection.
func filterLeads(leads []dto.Lead, req *dto.LeadsQueryRequest) []dto.Lead {
	cutoff := time.Now().AddDate(0, 0, -90).Format("2006-01-02")
	rangeSet := !req.Reviewed && req.From != "" && req.To != ""
	statuses := statusSet(req.Statuses)

	out := make([]dto.Lead, 0, len(leads))
	for _, l := range leads {
		if !allowedLeadStatuses[l.Estatus] {
			continue
		}
		day, parsed := parseLeadDate(l.CreatedMX)
		if parsed && day < cutoff {
			continue
		}
		if rangeSet && (!parsed || day < req.From || day > req.To) {
			continue
		}
		if statuses != nil && !statuses[l.Estatus] {
			continue
		}
		out = append(out, l)
	}
	return out
}

// leadKPIs counts pending vs reviewed leads and the conversion rate.
func leadKPIs(leads []dto.Lead, from, to string, statuses []string) dto.LeadsKPIs {
	set := statusSet(statuses)
	rangeSet := from != "" && to != ""

	var pending, reviewed int
	for _, l := range leads {
		if rangeSet {
			day, parsed := parseLeadDate(l.CreatedMX)
			if !parsed || day < from || day > to {
				continue
			}
		}
		if set != nil && !set[l.Estatus] {
			continue
		}
		if l.Revisado {
			reviewed++
		} else {
			pending++
		}
	}

	conv := "0%"
	if total := pending + reviewed; total > 0 {
		conv = fmt.Sprintf("%.1f%%", float64(reviewed)/float64(total)*100)
	}
	return dto.LeadsKPIs{Pending: pending, Reviewed: reviewed, Conversion: conv}
}

func statusSet(statuses []string) map[string]bool {
	if len(statuses) == 0 {
		return nil
	}
	set := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

// parseLeadDate tries the snapshot's date formats and returns the date
// part as YYYY-MM-DD.
func parseLeadDate(s string) (string, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
	if s == "" {
		return "", false
	}
	for _, layout := range leadDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// personaTipo classifies by RFC length: 13 characters is a persona
// física, 12 a persona moral. Without an RFC the snapshot's own value
// stands, defaulting to "NA".
func personaTipo(rfc, existing string) string {
	switch utf8.RuneCountInString(rfc) {
	case 13:
		return "PF"
	case 12:
		return "PM"
	}
	if existing == "" {
		return "NA"
	}
	return existing
}

// leadMoney renders a raw snapshot amount as a grouped two-decimal
// string, or empty when the cell has no usable number.
func leadMoney(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ""
	}
	return commaGrouped(v)
}
