package service

import (
	"context"
	"log/slog"
	"mime/multipart"
	"regexp"
	"sync"
	"time"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/utils"
)

// PageOCR is the OCR slice the contract reader needs: whole-page text
// with the default segmentation.
type PageOCR interface {
	ExtractTextFromBytes(img []byte) (string, error)
}

// Anchor phrases as they read after normalization (lowercase, single
// spaces). Quotes around the defined terms come out smart or straight
// depending on the PDF producer, so both forms are accepted.
var (
	capitalAnchorRegex = regexp.MustCompile(
		`haycash\s+se\s+obliga\s+a\s+transferir|cantidad\s+de\s+\$|\(\s*el\s+[“"]anticipo[”"]\s*\)|\bel\s+[“"]anticipo[”"]`)
	pagareAnchorRegex = regexp.MustCompile(
		`se\s+obliga\s+a\s+devolver\s+a\s+haycash|devolver\s+a\s+haycash\s+la\s+suma\s+de|\(\s*la\s+[“"]devoluci[oó]n[”"]\s*\)|\bla\s+[“"]devoluci[oó]n[”"]`)
	comisionAnchorRegex   = regexp.MustCompile(`comisi[oó]n\s+(?:por|de)\s+apertura`)
	pagoMinimoAnchorRegex = regexp.MustCompile(`\(\s*el\s+[“"]?monto\s+m[ií]nimo\s+mensual[”"]?\s*\)`)
)

const (
	// below this many normalized chars the whole contract is re-read
	// with OCR
	contractTextMin = 200

	capitalWindow    = 1200
	pagareWindow     = 1400
	comisionWindow   = 900
	pagoMinimoWindow = 2400
)

// ContratoService pulls the four negotiated amounts out of factoring
// contracts: the anticipo, the devolución, the opening fee and the
// minimum monthly payment.
type ContratoService struct {
	pdf    PDFProcessor
	ocr    PageOCR
	logger *slog.Logger
}

func NewContratoService(pdf PDFProcessor, ocr PageOCR, logger *slog.Logger) *ContratoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContratoService{
		pdf:    pdf,
		ocr:    ocr,
		logger: logger,
	}
}

// ExtractBatch reads every uploaded contract and reports, next to the
// rows, how many contracts are missing each field.
func (s *ContratoService) ExtractBatch(ctx context.Context, req *dto.ContractExtractRequest) (*dto.ContractExtractResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rows := make([]dto.ContractFields, len(req.Files))
	var wg sync.WaitGroup
	for i, fh := range req.Files {
		wg.Add(1)
		go func(i int, fh *multipart.FileHeader) {
			defer wg.Done()
			rows[i] = s.processFile(fh)
		}(i, fh)
	}
	wg.Wait()

	missing := map[string]int{
		"capital":             0,
		"valor_pagare":        0,
		"comision_apertura":   0,
		"pago_minimo_mensual": 0,
	}
	for _, row := range rows {
		if row.Capital == nil {
			missing["capital"]++
		}
		if row.ValorPagare == nil {
			missing["valor_pagare"]++
		}
		if row.ComisionApertura == nil {
			missing["comision_apertura"]++
		}
		if row.PagoMinimoMensual == nil {
			missing["pago_minimo_mensual"]++
		}
	}

	s.logger.Info("contrato.batch_done",
		"files", len(rows),
		"sin_capital", missing["capital"],
		"sin_valor_pagare", missing["valor_pagare"])
	return &dto.ContractExtractResponse{
		Rows:        rows,
		Missing:     missing,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}, nil
}

func (s *ContratoService) processFile(fh *multipart.FileHeader) dto.ContractFields {
	out := dto.ContractFields{Filename: fh.Filename}

	data, err := readUpload(fh)
	if err != nil {
		s.logger.Error("contrato.read_failed", "file", fh.Filename, "error", err)
		return out
	}

	text := s.contractText(data)

	if raw, _, ok := utils.FindNearAnchor(text, capitalAnchorRegex, utils.MoneyRegex, capitalWindow, utils.PreferNearest); ok {
		out.CapitalRaw = raw
		out.Capital = utils.MoneyToNumber(raw)
	}
	if raw, _, ok := utils.FindNearAnchor(text, pagareAnchorRegex, utils.MoneyRegex, pagareWindow, utils.PreferNearest); ok {
		out.ValorPagareRaw = raw
		out.ValorPagare = utils.MoneyToNumber(raw)
	}
	if raw, _, ok := utils.FindNearAnchor(text, comisionAnchorRegex, utils.PercentRegex, comisionWindow, utils.PreferNearest); ok {
		out.ComisionRaw = raw
		out.ComisionApertura = utils.PercentToNumber(raw)
	}
	if raw, _, ok := utils.FindBeforeAnchor(text, pagoMinimoAnchorRegex, utils.MoneyRegex, pagoMinimoWindow); ok {
		out.PagoMinimoRaw = raw
		out.PagoMinimoMensual = utils.MoneyToNumber(raw)
	}
	return out
}

// contractText favors the embedded text layer; when the whole document
// normalizes to almost nothing, every page is re-read with OCR instead.
func (s *ContratoService) contractText(data []byte) string {
	var pages []string
	if p, err := s.pdf.ExtractPageTexts(data); err == nil {
		pages = p
	}
	text := utils.NormalizeContractText(pages)
	if len(text) >= contractTextMin || s.ocr == nil {
		return text
	}

	images, err := s.pdf.ExtractImages(data)
	if err != nil || len(images) == 0 {
		return text
	}
	ocrPages := make([]string, 0, len(images))
	for _, img := range images {
		pageText, err := s.ocr.ExtractTextFromBytes(img)
		if err != nil {
			s.logger.Warn("contrato.ocr_page_failed", "error", err)
			ocrPages = append(ocrPages, "")
			continue
		}
		ocrPages = append(ocrPages, pageText)
	}
	return utils.NormalizeContractText(ocrPages)
}
