package utils

import (
	"testing"

	"github.com/haycash/toolbox/dto"
	"github.com/stretchr/testify/assert"
)

func TestDetectDocType(t *testing.T) {
	cases := []struct {
		name string
		text string
		want dto.DocumentType
	}{
		{"csf header", "Constancia de Situación Fiscal\nRFC: GOAP850101AB9", dto.DocTypeCSF},
		{"cedula header", "CÉDULA DE IDENTIFICACIÓN FISCAL", dto.DocTypeCSF},
		{"sat header", "servicio de administración tributaria", dto.DocTypeCSF},
		{"cfdi invoice", "COMPROBANTE FISCAL DIGITAL POR INTERNET", dto.DocTypeCFDI},
		{"factura marker", "factura serie A folio 123", dto.DocTypeCFDI},
		{"receptor marker", "Datos del receptor", dto.DocTypeCFDI},
		{"csf beats cfdi", "CONSTANCIA DE SITUACIÓN FISCAL del receptor", dto.DocTypeCSF},
		{"unmarked defaults to csf", "documento sin encabezado", dto.DocTypeCSF},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectDocType(tc.text))
		})
	}
}
