package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/haycash/toolbox/dto"
)

const noDataMessage = "Sin datos para los intervalos seleccionados."

// factorajeStyles holds the style ids shared by every sheet of one
// workbook: the navy group band, the gray column header and the three
// data formats.
type factorajeStyles struct {
	group int
	head  int
	text  int
	pct   int
	money int
	count int
}

// FactorajeWorkbook writes one sheet per RFC: three info rows, then a
// grouped table at row 5 with a merged band per interval. The fixed
// "Participación (%)" column repeats the participation of the first
// selected interval.
func FactorajeWorkbook(resp *dto.FactorajeResponse) ([]byte, string, error) {
	f := excelize.NewFile()

	styles, err := newFactorajeStyles(f)
	if err != nil {
		return nil, "", err
	}

	for i, report := range resp.Reports {
		sheet := report.RFC
		if len(sheet) > 31 {
			sheet = sheet[:31]
		}
		if err := addSheet(f, sheet, i == 0); err != nil {
			return nil, "", err
		}
		if err := writeTaxpayerSheet(f, sheet, report, resp.Intervals, styles); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("xlsx write: %w", err)
	}
	name := fmt.Sprintf("Proveedores_por_intervalo_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	return buf.Bytes(), name, nil
}

func writeTaxpayerSheet(f *excelize.File, sheet string, report dto.TaxpayerReport, selection []string, st factorajeStyles) error {
	source := "API (facturas)"
	if report.Source == "xml" {
		source = "XML"
	}
	_ = f.SetCellValue(sheet, "A1", "RFC: "+report.RFC)
	_ = f.SetCellValue(sheet, "A2", "Fuente: "+source)
	_ = f.SetCellValue(sheet, "A3", "Intervalos: "+strings.Join(selection, ", "))

	if len(report.Intervals) == 0 {
		return f.SetCellValue(sheet, "A5", noDataMessage)
	}

	headers, grid := supplierTable(report, selection)

	const bandRow = 5
	headRow := bandRow + 1
	dataRow := bandRow + 2

	if err := mergeBand(f, sheet, bandRow, 1, 3, "Proveedor", st.group); err != nil {
		return err
	}
	col := 4
	for _, iv := range report.Intervals {
		if err := mergeBand(f, sheet, bandRow, col, col+6, iv.Interval.Label, st.group); err != nil {
			return err
		}
		col += 7
	}

	for j, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(j+1, headRow)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	if err := styleRange(f, sheet, 1, headRow, len(headers), headRow, st.head); err != nil {
		return err
	}

	for r, cells := range grid {
		for j, v := range cells {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+1, dataRow+r)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	lastRow := dataRow + len(grid) - 1
	for j, h := range headers {
		if err := styleRange(f, sheet, j+1, dataRow, j+1, lastRow, columnStyle(h, st)); err != nil {
			return err
		}
		width := float64(len(h))
		for _, cells := range grid {
			if l := len(cellText(cells[j])); float64(l) > width {
				width = float64(l)
			}
		}
		width = min(55, max(10, width+2))
		col, _ := excelize.ColumnNumberToName(j + 1)
		_ = f.SetColWidth(sheet, col, col, width)
	}

	topLeft, _ := excelize.CoordinatesToCellName(1, dataRow)
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      dataRow - 1,
		TopLeftCell: topLeft,
		ActivePane:  "bottomLeft",
	})
}

// supplierTable outer-joins the interval blocks on (RFC, nombre),
// keeping suppliers in first-seen order. Cells are nil where a supplier
// has no invoices in that interval.
func supplierTable(report dto.TaxpayerReport, selection []string) ([]string, [][]any) {
	type supplierRow struct {
		rfc, nombre string
		byLabel     map[string]dto.SupplierMetrics
	}
	var order []*supplierRow
	index := map[string]*supplierRow{}
	for _, iv := range report.Intervals {
		for _, s := range iv.Suppliers {
			key := s.RFC + "\x00" + s.Nombre
			row, ok := index[key]
			if !ok {
				row = &supplierRow{rfc: s.RFC, nombre: s.Nombre, byLabel: map[string]dto.SupplierMetrics{}}
				index[key] = row
				order = append(order, row)
			}
			row.byLabel[iv.Interval.Label] = s
		}
	}

	refLabel := ""
	if len(selection) > 0 {
		refLabel = selection[0]
	}

	headers := []string{"Proveedor_RFC", "Proveedor_Nombre", "Participación (%)"}
	for _, iv := range report.Intervals {
		lbl := iv.Interval.Label
		headers = append(headers,
			fmt.Sprintf("Conteo total facturas (%s)", lbl),
			fmt.Sprintf("Monto total facturas (%s)", lbl),
			fmt.Sprintf("Conteo facturas PPD (%s)", lbl),
			fmt.Sprintf("Monto facturado PPD (%s)", lbl),
			fmt.Sprintf("Conteo facturas PUE (%s)", lbl),
			fmt.Sprintf("Monto facturado PUE (%s)", lbl),
			fmt.Sprintf("Participación (%s)", lbl),
		)
	}

	grid := make([][]any, 0, len(order))
	for _, row := range order {
		cells := make([]any, 0, len(headers))
		cells = append(cells, row.rfc, row.nombre)
		if m, ok := row.byLabel[refLabel]; ok {
			cells = append(cells, m.Participacion)
		} else {
			cells = append(cells, nil)
		}
		for _, iv := range report.Intervals {
			if m, ok := row.byLabel[iv.Interval.Label]; ok {
				cells = append(cells, m.Facturas, m.MontoMXN, m.FacturasPPD, m.MontoPPD, m.FacturasPUE, m.MontoPUE, m.Participacion)
			} else {
				cells = append(cells, nil, nil, nil, nil, nil, nil, nil)
			}
		}
		grid = append(grid, cells)
	}
	return headers, grid
}

func newFactorajeStyles(f *excelize.File) (factorajeStyles, error) {
	thin := []excelize.Border{
		{Type: "left", Color: "E5E7EB", Style: 1},
		{Type: "right", Color: "E5E7EB", Style: 1},
		{Type: "top", Color: "E5E7EB", Style: 1},
		{Type: "bottom", Color: "E5E7EB", Style: 1},
	}
	pctFmt := "0.00%"
	moneyFmt := `"$"#,##0.00`
	countFmt := "0"

	var err error
	mk := func(s *excelize.Style) int {
		if err != nil {
			return 0
		}
		var id int
		id, err = f.NewStyle(s)
		return id
	}
	st := factorajeStyles{
		group: mk(&excelize.Style{
			Border:    thin,
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"0B2E4E"}},
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}),
		head: mk(&excelize.Style{
			Border:    thin,
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E5E7EB"}},
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}),
		text: mk(&excelize.Style{
			Border:    thin,
			Alignment: &excelize.Alignment{Vertical: "top"},
		}),
		pct: mk(&excelize.Style{
			Border:       thin,
			Alignment:    &excelize.Alignment{Vertical: "top"},
			CustomNumFmt: &pctFmt,
		}),
		money: mk(&excelize.Style{
			Border:       thin,
			Alignment:    &excelize.Alignment{Vertical: "top"},
			CustomNumFmt: &moneyFmt,
		}),
		count: mk(&excelize.Style{
			Border:       thin,
			Alignment:    &excelize.Alignment{Vertical: "top"},
			CustomNumFmt: &countFmt,
		}),
	}
	return st, err
}

func columnStyle(header string, st factorajeStyles) int {
	switch {
	case strings.Contains(header, "Participación"):
		return st.pct
	case strings.Contains(header, "Monto"):
		return st.money
	case strings.Contains(header, "Conteo"):
		return st.count
	}
	return st.text
}

// mergeBand merges [startCol, endCol] on one row, writes the label and
// paints the whole band.
func mergeBand(f *excelize.File, sheet string, row, startCol, endCol int, label string, style int) error {
	from, _ := excelize.CoordinatesToCellName(startCol, row)
	to, _ := excelize.CoordinatesToCellName(endCol, row)
	if err := f.MergeCell(sheet, from, to); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, from, label); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}

func styleRange(f *excelize.File, sheet string, c1, r1, c2, r2, style int) error {
	from, _ := excelize.CoordinatesToCellName(c1, r1)
	to, _ := excelize.CoordinatesToCellName(c2, r2)
	return f.SetCellStyle(sheet, from, to, style)
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
