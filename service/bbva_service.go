package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/haycash/toolbox/dto"
)

// bbvaConfig is the static header information of a domiciliación file.
// It comes from a sample .exp file when one is provided, otherwise from
// the defaults below.
type bbvaConfig struct {
	recordLen int
	bank      string
	service   string
	name      string
	rfc       string
}

func defaultBBVAConfig() bbvaConfig {
	return bbvaConfig{
		recordLen: 300,
		bank:      "012",
		service:   "2",
		name:      "BANCO ACTINVER SA IBM POR CTA FID 6011",
		rfc:       "PBI*061115SC6     ",
	}
}

// parseBBVATemplate reads the header fields out of the first record of
// a valid .exp file. A template too short to carry them is ignored.
func parseBBVATemplate(data []byte) (bbvaConfig, bool) {
	line := data
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		line = data[:i]
	}
	decoded, _ := charmap.ISO8859_1.NewDecoder().Bytes(line)
	header := []rune(string(decoded))
	if len(header) < 118 {
		return bbvaConfig{}, false
	}
	return bbvaConfig{
		recordLen: len(line),
		bank:      string(header[11:14]),
		service:   string(header[15:16]),
		name:      string(header[60:100]),
		rfc:       string(header[100:118]),
	}, true
}

// dispersionRow is one payment order from the uploaded table.
type dispersionRow struct {
	Importe    float64
	Cuenta     string
	Banco      string
	Nombre     string
	Referencia string
	Titular    string
}

type dispersionTable struct {
	cols map[string]int
	rows [][]string
}

func (t *dispersionTable) cell(row []string, name, fallback string) string {
	i, ok := t.cols[name]
	if !ok {
		return fallback
	}
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *dispersionTable) toRows() []dispersionRow {
	out := make([]dispersionRow, 0, len(t.rows))
	for _, r := range t.rows {
		blank := true
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}

		imp, err := strconv.ParseFloat(strings.ReplaceAll(t.cell(r, "Importe", "0"), ",", ""), 64)
		if err != nil {
			imp = 0
		}
		out = append(out, dispersionRow{
			Importe:    imp,
			Cuenta:     t.cell(r, "Cuenta cargo", ""),
			Banco:      t.cell(r, "Banco", "000"),
			Nombre:     t.cell(r, "Nombre del cliente", ""),
			Referencia: t.cell(r, "Referencia", ""),
			Titular:    t.cell(r, "Titular del servicio", "HAYCASH"),
		})
	}
	return out
}

func readDispersionTable(data []byte, filename string) (*dispersionTable, error) {
	var records [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls", ".xlsm":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()
		records, err = f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet: %w", err)
		}
	default:
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		var err error
		records, err = r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
	}

	t := &dispersionTable{cols: map[string]int{}}
	if len(records) == 0 {
		return t, nil
	}
	for i, name := range records[0] {
		t.cols[strings.TrimSpace(name)] = i
	}
	t.rows = records[1:]
	return t, nil
}

// BBVAService renders payment orders as the fixed-width BBVA
// domiciliación layout: one 01 header, one 02 record per order and a
// 09 totals trailer, latin-1 encoded with CRLF terminators.
type BBVAService struct {
	logger *slog.Logger
}

func NewBBVAService(logger *slog.Logger) *BBVAService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BBVAService{logger: logger}
}

// Generate builds the bank file and a summary of what was produced.
func (s *BBVAService) Generate(req *dto.BBVARequest) ([]byte, *dto.BBVAResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	data, err := readUpload(req.File)
	if err != nil {
		return nil, nil, err
	}
	table, err := readDispersionTable(data, req.File.Filename)
	if err != nil {
		return nil, nil, err
	}
	rows := table.toRows()

	cfg := defaultBBVAConfig()
	source := "Default"
	if req.Template != nil {
		tdata, err := readUpload(req.Template)
		if err != nil {
			return nil, nil, err
		}
		source = "Template"
		if tcfg, ok := parseBBVATemplate(tdata); ok {
			cfg = tcfg
		} else {
			s.logger.Warn("bbva.template_ignored", "file", req.Template.Filename)
		}
	}

	fecha := strings.TrimSpace(req.FechaProc)
	if fecha == "" {
		fecha = time.Now().Format("20060102")
	}
	refStart := strings.TrimSpace(req.RefStart)
	if refStart == "" {
		refStart = "1"
	}
	refNum, err := strconv.Atoi(refStart)
	if err != nil {
		return nil, nil, fmt.Errorf("ref_start must be numeric: %q", req.RefStart)
	}
	block := strings.TrimSpace(req.Block)
	if block == "" {
		block = "1"
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, buildBBVAHeader(cfg, fecha, block))

	var totalAmount float64
	for i, row := range rows {
		totalAmount += row.Importe
		lines = append(lines, buildBBVADetail(cfg, row, i+2, fecha, refNum))
		refNum++
	}

	totalCents := int64(math.Round(totalAmount * 100))
	lines = append(lines, buildBBVASummary(cfg, len(lines)+1, len(rows), totalCents, block))

	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	var buf bytes.Buffer
	for _, line := range lines {
		encoded, err := enc.Bytes([]byte(line))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode record: %w", err)
		}
		buf.Write(encoded)
		buf.WriteString("\r\n")
	}

	base := filepath.Base(req.File.Filename)
	outName := strings.TrimSuffix(base, filepath.Ext(base)) + "_BBVA.txt"

	s.logger.Info("bbva.generated",
		"records", len(lines),
		"record_len", cfg.recordLen,
		"source", source)
	return buf.Bytes(), &dto.BBVAResponse{
		Filename:     outName,
		Records:      len(lines),
		RecordLength: cfg.recordLen,
		ConfigSource: source,
		Message: fmt.Sprintf("Generado: %d registros.\nUsando Configuración: %s\nLongitud registro: %d bytes",
			len(lines), source, cfg.recordLen),
	}, nil
}

func buildBBVAHeader(cfg bbvaConfig, fecha, block string) string {
	line := "01000000130" + cfg.bank + "E" + cfg.service + zeroPadLeft(block, 7) + fecha + "0100" +
		strings.Repeat(" ", 25) +
		padTo(cfg.name, 40) +
		padTo(cfg.rfc, 18) +
		strings.Repeat(" ", 182)
	return padTo(line, cfg.recordLen)
}

func buildBBVADetail(cfg bbvaConfig, row dispersionRow, seq int, fecha string, refNum int) string {
	impCents := int64(math.Round(row.Importe * 100))
	ivaCents := int64(math.Round(row.Importe * 0.16 * 100))
	tipo := inferAccountType(row.Cuenta)
	referencia := normalizeBBVAField(row.Referencia, 40)

	line := fmt.Sprintf("02%07d3001%015d%s", seq, impCents, fecha) +
		strings.Repeat(" ", 24) +
		"51" + fecha + destinationBank(row.Banco) + tipo + formatAccount(row.Cuenta, tipo) +
		normalizeBBVAField(row.Nombre, 40) +
		referencia +
		normalizeBBVAField(row.Titular, 40) +
		fmt.Sprintf("%015d%07d", ivaCents, refNum) +
		referencia + "00" +
		strings.Repeat(" ", 21)
	return padTo(line, cfg.recordLen)
}

func buildBBVASummary(cfg bbvaConfig, lastSeq, count int, totalCents int64, block string) string {
	line := fmt.Sprintf("09%07d30%s%07d%018d", lastSeq, zeroPadLeft(block, 7), count, totalCents) +
		strings.Repeat(" ", 257)
	return padTo(line, cfg.recordLen)
}

// inferAccountType guesses the BBVA account type code from the digit
// count: 18+ is a CLABE, 16+ a debit card, anything shorter a cheques
// account.
func inferAccountType(cuenta string) string {
	switch l := len(digitsOnly(cuenta)); {
	case l >= 18:
		return "40"
	case l >= 16:
		return "03"
	default:
		return "01"
	}
}

// formatAccount keeps the significant digits for the account type and
// left-pads the 20-char field with zeros.
func formatAccount(cuenta, tipo string) string {
	keep := 10
	switch tipo {
	case "40":
		keep = 18
	case "03":
		keep = 16
	}
	d := digitsOnly(cuenta)
	if len(d) > keep {
		d = d[len(d)-keep:]
	}
	return zeroPadLeft(d, 20)
}

func destinationBank(banco string) string {
	d := digitsOnly(banco)
	if len(d) < 3 {
		return "000"
	}
	return d[len(d)-3:]
}

var bbvaFieldReplacer = strings.NewReplacer(
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ñ", "N",
	"\n", " ", "\r", "",
)

// normalizeBBVAField uppercases, strips accents and fits the value into
// a fixed-width left-aligned field.
func normalizeBBVAField(s string, width int) string {
	t := strings.ToUpper(strings.TrimSpace(s))
	t = bbvaFieldReplacer.Replace(t)
	return padTo(t, width)
}

func padTo(s string, n int) string {
	r := []rune(s)
	if len(r) >= n {
		return string(r[:n])
	}
	return string(r) + strings.Repeat(" ", n-len(r))
}

func zeroPadLeft(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
