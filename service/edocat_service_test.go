package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haycash/toolbox/dto"
)

const statementPage1 = `ESTADO DE CUENTA BBVA
Saldo Inicial $ 10,000.00
Depósitos $ 25,500.50
Retiros $ 18,000.00`

const statementPage2 = `Saldo Final $ 17,500.50
Saldo Promedio $ 12,345.67
Interés Nominal en el Mes $ 0.45
ISR Retenido en el Mes $ 0.10`

type fakeLangOCR struct {
	texts map[string]string
	langs []string
}

func (f *fakeLangOCR) ExtractTextWithLanguages(img []byte, languages string) (string, error) {
	f.langs = append(f.langs, languages)
	t, ok := f.texts[string(img)]
	if !ok {
		return "", errors.New("tesseract failed")
	}
	return t, nil
}

func TestReadStatementSummary(t *testing.T) {
	payload := []byte("%PDF edocta")
	pdf := &fakePDF{images: map[string][][]byte{
		string(payload): {[]byte("page-1"), []byte("page-2")},
	}}
	ocr := &fakeLangOCR{texts: map[string]string{
		"page-1": statementPage1,
		"page-2": statementPage2,
	}}
	files := uploadHeaders(t, []string{"edocta.pdf"}, map[string][]byte{"edocta.pdf": payload})

	svc := NewEdocatService(pdf, ocr, discardLogger())
	resp, err := svc.Read(&dto.EdocatRequest{File: files[0], Lang: "spa+eng"})

	assert.NoError(t, err)
	assert.Equal(t, 2, resp.Pages)
	assert.Contains(t, resp.Text, "--- Página siguiente ---")
	assert.Equal(t, []string{"spa+eng", "spa+eng"}, ocr.langs)

	s := resp.Summary
	if assert.NotNil(t, s.SaldoInicial) {
		assert.InDelta(t, 10000.00, *s.SaldoInicial, 1e-9)
	}
	if assert.NotNil(t, s.Depositos) {
		assert.InDelta(t, 25500.50, *s.Depositos, 1e-9)
	}
	if assert.NotNil(t, s.Retiros) {
		assert.InDelta(t, 18000.00, *s.Retiros, 1e-9)
	}
	if assert.NotNil(t, s.SaldoFinal) {
		assert.InDelta(t, 17500.50, *s.SaldoFinal, 1e-9)
	}
	if assert.NotNil(t, s.SaldoPromedio) {
		assert.InDelta(t, 12345.67, *s.SaldoPromedio, 1e-9)
	}
	if assert.NotNil(t, s.InteresMensual) {
		assert.InDelta(t, 0.45, *s.InteresMensual, 1e-9)
	}
	if assert.NotNil(t, s.ISRMensual) {
		assert.InDelta(t, 0.10, *s.ISRMensual, 1e-9)
	}

	assert.Equal(t, "$ 10,000.00", resp.Formatted["Saldo_Inicial"])
	assert.Equal(t, "$ 25,500.50", resp.Formatted["Depositos"])
	assert.Equal(t, "$ 0.45", resp.Formatted["Interes_Mensual"])
}

func TestReadStatementMissingFields(t *testing.T) {
	payload := []byte("%PDF parcial")
	pdf := &fakePDF{images: map[string][][]byte{
		string(payload): {[]byte("page-1")},
	}}
	ocr := &fakeLangOCR{texts: map[string]string{"page-1": statementPage1}}
	files := uploadHeaders(t, []string{"parcial.pdf"}, map[string][]byte{"parcial.pdf": payload})

	svc := NewEdocatService(pdf, ocr, discardLogger())
	resp, err := svc.Read(&dto.EdocatRequest{File: files[0]})

	assert.NoError(t, err)
	assert.Nil(t, resp.Summary.SaldoFinal)
	assert.Nil(t, resp.Summary.ISRMensual)
	assert.Equal(t, "", resp.Formatted["Saldo_Final"])
	assert.Equal(t, "", resp.Formatted["ISR_Mensual"])
	assert.Equal(t, []string{""}, ocr.langs, "empty language means the client default")
}

func TestReadStatementOCRFailure(t *testing.T) {
	payload := []byte("%PDF roto")
	pdf := &fakePDF{images: map[string][][]byte{
		string(payload): {[]byte("page-1")},
	}}
	files := uploadHeaders(t, []string{"roto.pdf"}, map[string][]byte{"roto.pdf": payload})

	svc := NewEdocatService(pdf, &fakeLangOCR{}, discardLogger())
	_, err := svc.Read(&dto.EdocatRequest{File: files[0]})

	assert.ErrorContains(t, err, "ocr failed on page 1")

	_, err = svc.Read(&dto.EdocatRequest{})
	assert.ErrorIs(t, err, dto.ErrNoFilesUploaded)
}

func TestExtractStatementValueFirstNumberWins(t *testing.T) {
	// digits between the label and the amount win the match, so a date
	// glued to the label shadows the real value
	re := statementFields[3].re // Saldo Final
	v := extractStatementValue(re, "Saldo Final 31/07 $ 17,500.50")
	if assert.NotNil(t, v) {
		assert.InDelta(t, 31.0, *v, 1e-9)
	}

	assert.Nil(t, extractStatementValue(re, "Saldo Final sin monto"))
}

func TestMoneyFormat(t *testing.T) {
	assert.Equal(t, "", moneyFormat(nil))
	assert.Equal(t, "$ 0.45", moneyFormat(f64(0.45)))
	assert.Equal(t, "$ 12,345.67", moneyFormat(f64(12345.67)))
	assert.Equal(t, "$ 1,234,567.80", moneyFormat(f64(1234567.8)))
	assert.Equal(t, "$ -1,500.00", moneyFormat(f64(-1500)))
}
