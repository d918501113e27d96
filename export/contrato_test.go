package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"github.com/haycash/toolbox/dto"
)

func TestContractWorkbook(t *testing.T) {
	capital := 250000.5
	pagare := 287500.0
	comision := 2.5
	resp := &dto.ContractExtractResponse{
		Rows: []dto.ContractFields{
			{
				Filename:         "contrato_1.pdf",
				CapitalRaw:       "$250,000.50",
				Capital:          &capital,
				ValorPagareRaw:   "$287,500.00",
				ValorPagare:      &pagare,
				ComisionRaw:      "2.5%",
				ComisionApertura: &comision,
			},
			{Filename: "contrato_2.pdf"},
		},
	}

	b, name, err := ContractWorkbook(resp)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "extraccion_contratos_"), name)
	assert.True(t, strings.HasSuffix(name, ".xlsx"), name)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	assert.NoError(t, err)
	assert.Equal(t, []string{"extraccion"}, f.GetSheetList())

	rows, err := f.GetRows("extraccion")
	assert.NoError(t, err)
	assert.Equal(t, contractColumns, rows[0])

	cell := func(ref string) string {
		v, err := f.GetCellValue("extraccion", ref)
		assert.NoError(t, err)
		return v
	}
	assert.Equal(t, "contrato_1.pdf", cell("A2"))
	assert.Equal(t, "$250,000.50", cell("B2"))
	assert.Equal(t, "250000.5", cell("C2"))
	assert.Equal(t, "287500", cell("E2"))
	assert.Equal(t, "2.5", cell("G2"))

	// missing fields stay empty, raw and value alike
	assert.Equal(t, "contrato_2.pdf", cell("A3"))
	assert.Equal(t, "", cell("B3"))
	assert.Equal(t, "", cell("C3"))
	assert.Equal(t, "", cell("I3"))
}
