// Package export renders batch results as the XLSX workbooks the
// analysts download.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/haycash/toolbox/dto"
)

// CSFWorkbook writes the two-sheet batch workbook: Persona Física and
// Persona Moral, fixed column order, every cell a plain string. Both
// sheets carry the header row even when empty.
func CSFWorkbook(resp *dto.CSFExtractResponse) ([]byte, string, error) {
	f := excelize.NewFile()

	sheets := []struct {
		name    string
		records []dto.ExtractedRecord
	}{
		{"Persona Física", resp.Fisicas},
		{"Persona Moral", resp.Morales},
	}
	for i, s := range sheets {
		if err := addSheet(f, s.name, i == 0); err != nil {
			return nil, "", err
		}
		for col, h := range dto.RecordColumns {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(s.name, cell, h); err != nil {
				return nil, "", err
			}
		}
		for row, rec := range s.records {
			for col, v := range rec.Values() {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				if err := f.SetCellValue(s.name, cell, v); err != nil {
					return nil, "", err
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("xlsx write: %w", err)
	}
	name := fmt.Sprintf("csf_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf.Bytes(), name, nil
}

// addSheet renames the workbook's default sheet on first use and
// creates a fresh one afterwards.
func addSheet(f *excelize.File, name string, first bool) error {
	if first {
		return f.SetSheetName(f.GetSheetName(0), name)
	}
	_, err := f.NewSheet(name)
	return err
}
