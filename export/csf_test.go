package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"github.com/haycash/toolbox/dto"
)

func TestCSFWorkbook(t *testing.T) {
	resp := &dto.CSFExtractResponse{
		Fisicas: []dto.ExtractedRecord{{
			Nombres:    "JUAN",
			LastName:   "PEREZ",
			RFC:        "GOAP850101AB9",
			PostalCode: "06600",
			CreatedAt:  "2026-08-23 10:00",
		}},
		Morales: []dto.ExtractedRecord{{
			Nombres: "ACME SA DE CV",
			RFC:     "AME061115AB1",
		}},
	}

	b, name, err := CSFWorkbook(resp)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "csf_"), name)
	assert.True(t, strings.HasSuffix(name, ".xlsx"), name)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Persona Física", "Persona Moral"}, f.GetSheetList())

	rows, err := f.GetRows("Persona Física")
	assert.NoError(t, err)
	assert.Equal(t, dto.RecordColumns, rows[0])

	cell := func(sheet, ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		assert.NoError(t, err)
		return v
	}
	assert.Equal(t, "JUAN", cell("Persona Física", "A2"))
	assert.Equal(t, "PEREZ", cell("Persona Física", "B2"))
	assert.Equal(t, "GOAP850101AB9", cell("Persona Física", "E2"))
	assert.Equal(t, "06600", cell("Persona Física", "J2"))
	assert.Equal(t, "2026-08-23 10:00", cell("Persona Física", "T2"))
	assert.Equal(t, "ACME SA DE CV", cell("Persona Moral", "A2"))
}

func TestCSFWorkbookEmptyBatchKeepsHeaders(t *testing.T) {
	b, _, err := CSFWorkbook(&dto.CSFExtractResponse{})
	assert.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	assert.NoError(t, err)
	for _, sheet := range []string{"Persona Física", "Persona Moral"} {
		rows, err := f.GetRows(sheet)
		assert.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, dto.RecordColumns, rows[0])
	}
}
