package service

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/haycash/toolbox/dto"
)

// LanguageOCR runs OCR with a caller-chosen language set.
type LanguageOCR interface {
	ExtractTextWithLanguages(img []byte, languages string) (string, error)
}

const statementPageBreak = "\n\n--- Página siguiente ---\n\n"

// statementFields are the headline figures of a bank statement, each
// matched as label followed by the nearest dollar amount.
var statementFields = []struct {
	key string
	re  *regexp.Regexp
	set func(*dto.StatementSummary, *float64)
}{
	{"Saldo_Inicial", regexp.MustCompile(`(?is)Saldo Inicial.*?\$ ?[0-9,.]+`),
		func(s *dto.StatementSummary, v *float64) { s.SaldoInicial = v }},
	{"Depositos", regexp.MustCompile(`(?is)Dep[oó]sitos.*?\$ ?[0-9,.]+`),
		func(s *dto.StatementSummary, v *float64) { s.Depositos = v }},
	{"Retiros", regexp.MustCompile(`(?is)Retiros.*?\$ ?[0-9,.]+`),
		func(s *dto.StatementSummary, v *float64) { s.Retiros = v }},
	{"Saldo_Final", regexp.MustCompile(`(?is)Saldo Final.*?\$ ?[0-9,.]+`),
		func(s *dto.StatementSummary, v *float64) { s.SaldoFinal = v }},
	{"Saldo_Promedio", regexp.MustCompile(`(?is)Saldo Promedio.*?\$ ?[0-9,.]+`),
		func(s *dto.StatementSummary, v *float64) { s.SaldoPromedio = v }},
	{"Interes_Mensual", regexp.MustCompile(`(?is)Inter[eé]s Nominal en el Mes.*?\$ ?[0-9,.]+`),
		func(s *dto.StatementSummary, v *float64) { s.InteresMensual = v }},
	{"ISR_Mensual", regexp.MustCompile(`(?is)ISR Retenido en el Mes.*?\$ ?[0-9,.]+`),
		func(s *dto.StatementSummary, v *float64) { s.ISRMensual = v }},
}

var statementNumberRegex = regexp.MustCompile(`[0-9][0-9,]*\.?[0-9]*`)

// EdocatService reads bank statements. Statements are scans in
// practice, so every page goes through OCR regardless of text layer.
type EdocatService struct {
	pdf    PDFProcessor
	ocr    LanguageOCR
	logger *slog.Logger
}

func NewEdocatService(pdf PDFProcessor, ocr LanguageOCR, logger *slog.Logger) *EdocatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EdocatService{pdf: pdf, ocr: ocr, logger: logger}
}

// Read renders the statement's pages, OCRs them and pulls the summary
// figures out of the combined text.
func (s *EdocatService) Read(req *dto.EdocatRequest) (*dto.EdocatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	data, err := readUpload(req.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", req.File.Filename, err)
	}

	images, err := s.pdf.ExtractImages(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", req.File.Filename, err)
	}

	pages := make([]string, 0, len(images))
	for i, img := range images {
		text, err := s.ocr.ExtractTextWithLanguages(img, req.Lang)
		if err != nil {
			return nil, fmt.Errorf("ocr failed on page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}
	text := strings.Join(pages, statementPageBreak)

	var summary dto.StatementSummary
	formatted := make(map[string]string, len(statementFields))
	found := 0
	for _, f := range statementFields {
		v := extractStatementValue(f.re, text)
		f.set(&summary, v)
		formatted[f.key] = moneyFormat(v)
		if v != nil {
			found++
		}
	}

	s.logger.Info("edocat.statement_read",
		"file", req.File.Filename,
		"pages", len(images),
		"fields", found)

	return &dto.EdocatResponse{
		Summary:   summary,
		Formatted: formatted,
		Text:      text,
		Pages:     len(images),
	}, nil
}

// extractStatementValue pulls the first currency-looking number out of
// a label match. Spaces inside the amount are OCR noise and removed
// before matching digits.
func extractStatementValue(re *regexp.Regexp, text string) *float64 {
	m := re.FindString(text)
	if m == "" {
		return nil
	}
	num := statementNumberRegex.FindString(strings.ReplaceAll(m, " ", ""))
	if num == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

// moneyFormat renders 12345.67 as "$ 12,345.67"; nil renders empty.
func moneyFormat(v *float64) string {
	if v == nil {
		return ""
	}
	return "$ " + commaGrouped(*v)
}

// commaGrouped renders a float with two decimals and thousands commas.
func commaGrouped(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ",") + frac
	if neg {
		out = "-" + out
	}
	return out
}
