package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/utils"
	"github.com/haycash/toolbox/worker"
)

// InvoiceAPI is the slice of the Syntage client the concentration
// report needs.
type InvoiceAPI interface {
	ListInvoices(ctx context.Context, rfc string, from, to time.Time) []dto.InvoiceRow
	ListInvoiceItems(ctx context.Context, rfc string, from, to time.Time) []map[string]any
	CFDIURLCandidates(item map[string]any) []string
	ProbeFirstWorkingURL(ctx context.Context, urls []string) (string, bool)
	GetXML(ctx context.Context, rawURL string) (string, bool)
	Status() dto.APIStatus
}

// FactorajeService builds supplier concentration reports from a
// taxpayer's received invoices.
type FactorajeService struct {
	api    InvoiceAPI
	logger *slog.Logger
}

func NewFactorajeService(api InvoiceAPI, logger *slog.Logger) *FactorajeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FactorajeService{api: api, logger: logger}
}

// BuildReport fetches every requested RFC's received invoices and
// aggregates them per interval. The query range always covers the
// longest selected interval.
func (s *FactorajeService) BuildReport(ctx context.Context, req *dto.FactorajeRequest) (*dto.FactorajeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	intervals, err := selectIntervals(req.Intervals)
	if err != nil {
		return nil, err
	}

	source := req.Source
	if source == "" {
		source = "api"
	}
	excludeFX := true
	if req.ExcludeFX != nil {
		excludeFX = *req.ExcludeFX
	}

	maxDays := 0
	for _, iv := range intervals {
		if iv.Days > maxDays {
			maxDays = iv.Days
		}
	}

	today := time.Now()
	from := today.AddDate(0, 0, -maxDays)

	rfcs := req.RFCList()
	reports := make([]dto.TaxpayerReport, 0, len(rfcs))
	for _, rfc := range rfcs {
		rows := s.receivedInvoices(ctx, source, rfc, from, today)

		report := dto.TaxpayerReport{RFC: rfc, Source: source, Invoices: len(rows)}
		for _, iv := range intervals {
			start := today.AddDate(0, 0, -iv.Days)
			if block, ok := metricsByInterval(rows, start, today, rfc, iv, excludeFX); ok {
				report.Intervals = append(report.Intervals, block)
			}
		}

		s.logger.Info("factoraje.report_built",
			"rfc", rfc,
			"source", source,
			"invoices", len(rows),
			"intervals", len(report.Intervals))
		reports = append(reports, report)
	}

	labels := make([]string, len(intervals))
	for i, iv := range intervals {
		labels[i] = iv.Label
	}
	return &dto.FactorajeResponse{
		Reports:     reports,
		Intervals:   labels,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// APIStatus reports the outcome of the last Syntage call.
func (s *FactorajeService) APIStatus() dto.APIStatus {
	return s.api.Status()
}

// receivedInvoices pulls the taxpayer's invoices from the requested
// source and applies the supplier filters: non-empty UUID, received by
// the target, not self-issued, voucher type I. Duplicate UUIDs keep the
// first occurrence.
func (s *FactorajeService) receivedInvoices(ctx context.Context, source, rfc string, from, to time.Time) []dto.InvoiceRow {
	var rows []dto.InvoiceRow
	if source == "xml" {
		rows = s.invoicesFromXML(ctx, rfc, from, to)
	} else {
		rows = s.api.ListInvoices(ctx, rfc, from, to)
	}

	seen := make(map[string]bool, len(rows))
	out := make([]dto.InvoiceRow, 0, len(rows))
	for _, r := range rows {
		if !keepSupplierRow(r, rfc) || seen[r.UUID] {
			continue
		}
		seen[r.UUID] = true
		out = append(out, r)
	}
	return out
}

// invoicesFromXML downloads each listed invoice's CFDI and parses the
// header out of the XML itself. Downloads fan out over a bounded pool;
// failed downloads are dropped.
func (s *FactorajeService) invoicesFromXML(ctx context.Context, rfc string, from, to time.Time) []dto.InvoiceRow {
	items := s.api.ListInvoiceItems(ctx, rfc, from, to)
	if len(items) == 0 {
		return nil
	}

	urls := make([]string, 0, len(items))
	for _, item := range items {
		if u, ok := s.api.ProbeFirstWorkingURL(ctx, s.api.CFDIURLCandidates(item)); ok {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil
	}

	jobs := make([]worker.Job, 0, len(urls))
	for _, u := range urls {
		jobs = append(jobs, cfdiDownloadJob{api: s.api, url: u})
	}
	pool := worker.NewPool(worker.PoolSizeFor(len(jobs)))
	results := pool.Run(ctx, jobs)

	rows := make([]dto.InvoiceRow, 0, len(results))
	failed := 0
	for _, res := range results {
		r, ok := res.(cfdiDownloadResult)
		if !ok || r.err != nil {
			failed++
			continue
		}
		rows = append(rows, r.row)
	}
	if failed > 0 {
		s.logger.Warn("factoraje.cfdi_download_failed", "rfc", rfc, "failed", failed, "urls", len(urls))
	}
	return rows
}

type cfdiDownloadJob struct {
	api InvoiceAPI
	url string
}

type cfdiDownloadResult struct {
	row dto.InvoiceRow
	err error
}

func (r cfdiDownloadResult) GetError() error { return r.err }

func (j cfdiDownloadJob) Execute(ctx context.Context) worker.Result {
	body, ok := j.api.GetXML(ctx, j.url)
	if !ok {
		return cfdiDownloadResult{err: fmt.Errorf("cfdi download failed: %s", j.url)}
	}
	row, ok := utils.ParseInvoiceXML(body)
	if !ok {
		return cfdiDownloadResult{err: fmt.Errorf("unparseable cfdi: %s", j.url)}
	}
	return cfdiDownloadResult{row: row}
}

// metricsByInterval aggregates the rows dated inside [start, end] by
// issuer. Returns false when nothing survives the filters.
func metricsByInterval(rows []dto.InvoiceRow, start, end time.Time, target string, iv dto.Interval, excludeFX bool) (dto.IntervalReport, bool) {
	fromStr := start.Format("2006-01-02")
	toStr := end.Format("2006-01-02")

	groups := make(map[string]*dto.SupplierMetrics)
	for _, r := range rows {
		if r.Fecha == "" || r.Fecha < fromStr || r.Fecha > toStr {
			continue
		}
		if !keepSupplierRow(r, target) {
			continue
		}
		amount := amountMXN(r)
		if excludeFX && amount == nil {
			continue
		}

		nombre := r.EmisorNombre
		if strings.TrimSpace(nombre) == "" {
			nombre = r.EmisorRFC
		}
		key := r.EmisorRFC + "\x00" + nombre
		g := groups[key]
		if g == nil {
			g = &dto.SupplierMetrics{RFC: r.EmisorRFC, Nombre: nombre}
			groups[key] = g
		}

		g.Facturas++
		if amount != nil {
			g.MontoMXN += *amount
		}
		switch r.MetodoPago {
		case "PPD":
			g.FacturasPPD++
			if amount != nil {
				g.MontoPPD += *amount
			}
		case "PUE":
			g.FacturasPUE++
			if amount != nil {
				g.MontoPUE += *amount
			}
		}
	}

	if len(groups) == 0 {
		return dto.IntervalReport{}, false
	}

	suppliers := make([]dto.SupplierMetrics, 0, len(groups))
	for _, g := range groups {
		suppliers = append(suppliers, *g)
	}
	sort.Slice(suppliers, func(i, j int) bool {
		if suppliers[i].RFC != suppliers[j].RFC {
			return suppliers[i].RFC < suppliers[j].RFC
		}
		return suppliers[i].Nombre < suppliers[j].Nombre
	})

	var total float64
	for _, sup := range suppliers {
		total += sup.MontoMXN
	}
	for i := range suppliers {
		if total > 0 {
			suppliers[i].Participacion = suppliers[i].MontoMXN / total
		}
	}

	return dto.IntervalReport{
		Interval:  iv,
		From:      fromStr,
		To:        toStr,
		Suppliers: suppliers,
		TotalMXN:  total,
	}, true
}

func keepSupplierRow(r dto.InvoiceRow, target string) bool {
	return r.UUID != "" &&
		r.EmisorRFC != "" &&
		r.ReceptorRFC == target &&
		r.EmisorRFC != target &&
		r.Tipo == "I"
}

// amountMXN converts one invoice total to MXN. Totals with no usable
// currency pass through as-is; foreign currency needs a positive finite
// exchange rate, otherwise the amount is unknown.
func amountMXN(r dto.InvoiceRow) *float64 {
	if r.Total == nil {
		return nil
	}
	switch r.Moneda {
	case "", "MXN", "NAN":
		v := *r.Total
		return &v
	}
	if r.TipoCambio != nil {
		fx := *r.TipoCambio
		if fx > 0 && !math.IsNaN(fx) && !math.IsInf(fx, 0) {
			v := *r.Total * fx
			return &v
		}
	}
	return nil
}

func selectIntervals(labels []string) ([]dto.Interval, error) {
	if len(labels) == 0 {
		return dto.Intervals, nil
	}
	byLabel := make(map[string]dto.Interval, len(dto.Intervals))
	for _, iv := range dto.Intervals {
		byLabel[iv.Label] = iv
	}

	out := make([]dto.Interval, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		iv, ok := byLabel[l]
		if !ok {
			return nil, fmt.Errorf("unknown interval: %q", l)
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, iv)
	}
	return out, nil
}
