package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haycash/toolbox/dto"
)

const contractDoc = `CONTRATO DE FACTORAJE FINANCIERO
HayCash se obliga a transferir al Cliente la cantidad de $ 500,000.00 (el “Anticipo”).
El Cliente se obliga a devolver a HayCash la suma de $ 585,000.00 (la “Devolución”).
Las partes pactan una comisión por apertura de 2.5 % sobre el monto del Anticipo.
Pagos de $ 10,000.00 y un último pago de $ 48,750.00 cada mes (el “Monto Mínimo Mensual”) conforme al Anexo B.`

const contractPartialDoc = `ANEXO ÚNICO
HayCash se obliga a transferir la cantidad de $ 120,000.00 (el “Anticipo”).
El cliente deberá devolver a HayCash la suma de $ 140,000.00 en el plazo pactado.`

type fakePageOCR struct {
	texts map[string]string
	calls atomic.Int32
}

func (f *fakePageOCR) ExtractTextFromBytes(img []byte) (string, error) {
	f.calls.Add(1)
	return f.texts[string(img)], nil
}

func TestContractBatchExtractsAmounts(t *testing.T) {
	pdf := &fakePDF{texts: map[string][]string{"contract-bytes": {contractDoc}}}
	svc := NewContratoService(pdf, &fakePageOCR{}, discardLogger())

	files := uploadHeaders(t, []string{"contrato.pdf"}, map[string][]byte{"contrato.pdf": []byte("contract-bytes")})
	resp, err := svc.ExtractBatch(context.Background(), &dto.ContractExtractRequest{Files: files})

	assert.NoError(t, err)
	assert.Len(t, resp.Rows, 1)
	assert.NotEmpty(t, resp.ProcessedAt)

	row := resp.Rows[0]
	assert.Equal(t, "contrato.pdf", row.Filename)
	assert.Equal(t, "$ 500,000.00", row.CapitalRaw)
	if assert.NotNil(t, row.Capital) {
		assert.Equal(t, 500000.0, *row.Capital)
	}
	assert.Equal(t, "$ 585,000.00", row.ValorPagareRaw)
	if assert.NotNil(t, row.ValorPagare) {
		assert.Equal(t, 585000.0, *row.ValorPagare)
	}
	assert.Equal(t, "2.5 %", row.ComisionRaw)
	if assert.NotNil(t, row.ComisionApertura) {
		assert.Equal(t, 2.5, *row.ComisionApertura)
	}
	assert.Equal(t, "$ 48,750.00", row.PagoMinimoRaw)
	if assert.NotNil(t, row.PagoMinimoMensual) {
		assert.Equal(t, 48750.0, *row.PagoMinimoMensual)
	}

	for field, n := range resp.Missing {
		assert.Zero(t, n, field)
	}
}

func TestContractBatchMissingCounts(t *testing.T) {
	pdf := &fakePDF{texts: map[string][]string{
		"full-bytes":    {contractDoc},
		"partial-bytes": {contractPartialDoc},
	}}
	svc := NewContratoService(pdf, &fakePageOCR{}, discardLogger())

	files := uploadHeaders(t,
		[]string{"full.pdf", "partial.pdf"},
		map[string][]byte{
			"full.pdf":    []byte("full-bytes"),
			"partial.pdf": []byte("partial-bytes"),
		})
	resp, err := svc.ExtractBatch(context.Background(), &dto.ContractExtractRequest{Files: files})

	assert.NoError(t, err)
	assert.Len(t, resp.Rows, 2)
	assert.Equal(t, "full.pdf", resp.Rows[0].Filename)

	partial := resp.Rows[1]
	if assert.NotNil(t, partial.Capital) {
		assert.Equal(t, 120000.0, *partial.Capital)
	}
	if assert.NotNil(t, partial.ValorPagare) {
		assert.Equal(t, 140000.0, *partial.ValorPagare)
	}
	assert.Nil(t, partial.ComisionApertura)
	assert.Nil(t, partial.PagoMinimoMensual)

	assert.Equal(t, 0, resp.Missing["capital"])
	assert.Equal(t, 0, resp.Missing["valor_pagare"])
	assert.Equal(t, 1, resp.Missing["comision_apertura"])
	assert.Equal(t, 1, resp.Missing["pago_minimo_mensual"])
}

func TestContractBatchOCRFallback(t *testing.T) {
	pdf := &fakePDF{
		texts:  map[string][]string{"scan-bytes": {""}},
		images: map[string][][]byte{"scan-bytes": {[]byte("page-1")}},
	}
	ocr := &fakePageOCR{texts: map[string]string{"page-1": contractDoc}}
	svc := NewContratoService(pdf, ocr, discardLogger())

	files := uploadHeaders(t, []string{"scan.pdf"}, map[string][]byte{"scan.pdf": []byte("scan-bytes")})
	resp, err := svc.ExtractBatch(context.Background(), &dto.ContractExtractRequest{Files: files})

	assert.NoError(t, err)
	if assert.NotNil(t, resp.Rows[0].Capital) {
		assert.Equal(t, 500000.0, *resp.Rows[0].Capital)
	}
	assert.NotZero(t, ocr.calls.Load())
}

func TestContractBatchUnreadableContract(t *testing.T) {
	svc := NewContratoService(&fakePDF{}, &fakePageOCR{}, discardLogger())

	files := uploadHeaders(t, []string{"vacio.pdf"}, map[string][]byte{"vacio.pdf": []byte("whatever")})
	resp, err := svc.ExtractBatch(context.Background(), &dto.ContractExtractRequest{Files: files})

	assert.NoError(t, err)
	row := resp.Rows[0]
	assert.Equal(t, "vacio.pdf", row.Filename)
	assert.Nil(t, row.Capital)
	assert.Nil(t, row.ValorPagare)
	assert.Nil(t, row.ComisionApertura)
	assert.Nil(t, row.PagoMinimoMensual)
	assert.Equal(t, 1, resp.Missing["capital"])

	_, err = svc.ExtractBatch(context.Background(), &dto.ContractExtractRequest{})
	assert.ErrorIs(t, err, dto.ErrNoFilesUploaded)
}
