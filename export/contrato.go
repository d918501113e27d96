package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/haycash/toolbox/dto"
)

// contractColumns is the audit layout: each parsed amount sits next to
// the raw text it was read from.
var contractColumns = []string{
	"file_name",
	"capital_raw", "capital",
	"valor_pagare_raw", "valor_pagare",
	"comision_apertura_raw", "comision_apertura",
	"pago_minimo_mensual_raw", "pago_minimo_mensual",
}

// ContractWorkbook writes a contract batch to the single "extraccion"
// sheet. Fields the anchors never matched stay as empty cells.
func ContractWorkbook(resp *dto.ContractExtractResponse) ([]byte, string, error) {
	f := excelize.NewFile()
	const sheet = "extraccion"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, "", err
	}

	for col, h := range contractColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", err
		}
	}

	for i, row := range resp.Rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		writeNum := func(col int, v *float64) {
			if v != nil {
				write(col, *v)
			}
		}
		write(1, row.Filename)
		write(2, row.CapitalRaw)
		writeNum(3, row.Capital)
		write(4, row.ValorPagareRaw)
		writeNum(5, row.ValorPagare)
		write(6, row.ComisionRaw)
		writeNum(7, row.ComisionApertura)
		write(8, row.PagoMinimoRaw)
		writeNum(9, row.PagoMinimoMensual)
	}

	_ = f.SetColWidth(sheet, "A", "A", 32)
	_ = f.SetColWidth(sheet, "B", "I", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("xlsx write: %w", err)
	}
	name := fmt.Sprintf("extraccion_contratos_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf.Bytes(), name, nil
}
