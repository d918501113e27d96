package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"sync"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/utils"
)

// OCRClient is the slice of the Tesseract client this pipeline needs.
type OCRClient interface {
	ExtractBlockText(img []byte) (string, error)
}

const (
	// below this many embedded chars the text layer is considered absent
	embeddedTextMin = 80
	// with OCR enabled, embedded text scoring under this bar is redone
	ocrQualityBar = 5.0
)

// DocumentService turns batches of CSF/CFDI PDFs into the two fixed
// record tables (personas físicas and morales).
type DocumentService struct {
	pdf    PDFProcessor
	ocr    OCRClient
	sat    *SATService
	logger *slog.Logger
}

func NewDocumentService(pdf PDFProcessor, ocr OCRClient, sat *SATService, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		pdf:    pdf,
		ocr:    ocr,
		sat:    sat,
		logger: logger,
	}
}

type documentOutcome struct {
	doc  utils.ParsedDocument
	diag dto.DocumentDiagnostic
}

// ExtractBatch processes every uploaded file and aggregates the rows.
// A file that cannot be read at all still produces a diagnostic and an
// all-empty row; the batch never aborts half way.
func (s *DocumentService) ExtractBatch(ctx context.Context, req *dto.CSFExtractRequest) (*dto.CSFExtractResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	outcomes := make([]documentOutcome, len(req.Files))
	var wg sync.WaitGroup
	for i, fh := range req.Files {
		wg.Add(1)
		go func(i int, fh *multipart.FileHeader) {
			defer wg.Done()
			outcomes[i] = s.processFile(ctx, fh, req.UseOCR)
		}(i, fh)
	}
	wg.Wait()

	resp := &dto.CSFExtractResponse{
		Fisicas:     []dto.ExtractedRecord{},
		Morales:     []dto.ExtractedRecord{},
		Documents:   make([]dto.DocumentDiagnostic, 0, len(outcomes)),
		ProcessedAt: time.Now().Format(time.RFC3339),
	}
	for _, out := range outcomes {
		resp.Documents = append(resp.Documents, out.diag)
		if out.doc.Tipo == dto.PersonMoral {
			resp.Morales = append(resp.Morales, out.doc.Row)
		} else {
			// undetermined documents land with the físicas, like the
			// rest of the reporting chain expects
			resp.Fisicas = append(resp.Fisicas, out.doc.Row)
		}
	}

	if req.MatchSAT && s.sat != nil {
		s.resolveIndustries(ctx, resp.Fisicas, dto.PersonFisica)
		s.resolveIndustries(ctx, resp.Morales, dto.PersonMoral)
	}

	s.logger.Info("document.batch_done",
		"files", len(req.Files),
		"fisicas", len(resp.Fisicas),
		"morales", len(resp.Morales))
	return resp, nil
}

func (s *DocumentService) processFile(ctx context.Context, fh *multipart.FileHeader, useOCR bool) documentOutcome {
	data, err := readUpload(fh)
	if err != nil {
		s.logger.Error("document.read_failed", "file", fh.Filename, "error", err)
		return documentOutcome{
			doc: utils.ParsedDocument{Tipo: dto.PersonUnknown},
			diag: dto.DocumentDiagnostic{
				Filename:   fh.Filename,
				PersonType: dto.PersonUnknown,
				Empty:      true,
				Error:      err.Error(),
			},
		}
	}

	qr := s.qrRFC(data)
	out := s.parseOnce(data, fh.Filename, useOCR, qr)

	// an empty row without OCR gets exactly one OCR retry
	if out.doc.Row.IsEmpty() && !useOCR {
		s.logger.Info("document.retry_with_ocr", "file", fh.Filename)
		out = s.parseOnce(data, fh.Filename, true, qr)
	}
	return out
}

func (s *DocumentService) parseOnce(data []byte, filename string, useOCR bool, qrRFC string) documentOutcome {
	raw, ocrUsed := s.extractText(data, useOCR)
	text := utils.CleanText(raw)

	diag := dto.DocumentDiagnostic{
		Filename: filename,
		Chars:    len(text),
		UsedOCR:  ocrUsed,
	}

	if strings.TrimSpace(text) == "" {
		diag.PersonType = dto.PersonUnknown
		diag.Empty = true
		return documentOutcome{doc: utils.ParsedDocument{Tipo: dto.PersonUnknown}, diag: diag}
	}

	docType := utils.DetectDocType(text)
	diag.DocType = docType

	var doc utils.ParsedDocument
	if docType == dto.DocTypeCSF {
		doc = utils.ParseCSFText(text, qrRFC)
	} else {
		doc = utils.ParseCFDIText(text)
	}

	diag.PersonType = doc.Tipo
	diag.Empty = doc.Row.IsEmpty()
	return documentOutcome{doc: doc, diag: diag}
}

// extractText mirrors the text-layer-first strategy: embedded text wins
// unless it is too short, or OCR is enabled and the text scores badly;
// OCR output replaces it only when it actually scores higher. The bool
// reports whether the returned text came from OCR.
func (s *DocumentService) extractText(data []byte, useOCR bool) (string, bool) {
	var embedded string
	if pages, err := s.pdf.ExtractPageTexts(data); err == nil {
		embedded = strings.Join(pages, "\n\n")
	}

	needOCR := false
	if len(strings.TrimSpace(embedded)) < embeddedTextMin {
		needOCR = true
	} else if useOCR {
		needOCR = utils.TextQuality(embedded) < ocrQualityBar
	}
	if !needOCR || s.ocr == nil {
		return embedded, false
	}

	images, err := s.pdf.ExtractImages(data)
	if err != nil || len(images) == 0 {
		return embedded, false
	}

	parts := make([]string, 0, len(images))
	for _, img := range images {
		pageText, err := s.ocr.ExtractBlockText(img)
		if err != nil {
			s.logger.Warn("document.ocr_page_failed", "error", err)
			parts = append(parts, "")
			continue
		}
		parts = append(parts, pageText)
	}
	ocrText := strings.Join(parts, "\n\n")

	if utils.TextQuality(ocrText) > utils.TextQuality(embedded) {
		return ocrText, true
	}
	return embedded, false
}

// qrRFC scans the page images for the SAT validador QR and returns the
// RFC embedded in it, or "".
func (s *DocumentService) qrRFC(data []byte) string {
	images, err := s.pdf.ExtractImages(data)
	if err != nil {
		return ""
	}
	reader := qrcode.NewQRCodeReader()
	for _, raw := range images {
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			continue
		}
		bmp, err := gozxing.NewBinaryBitmapFromImage(img)
		if err != nil {
			continue
		}
		result, err := reader.Decode(bmp, nil)
		if err != nil {
			continue
		}
		if rfc := utils.RFCFromQR(result.GetText()); rfc != "" {
			return rfc
		}
	}
	return ""
}

func (s *DocumentService) resolveIndustries(ctx context.Context, records []dto.ExtractedRecord, tipo dto.PersonType) {
	for i := range records {
		records[i].IndustrySAT = s.sat.MatchActivity(ctx, records[i].Industry, tipo)
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
