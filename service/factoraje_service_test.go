package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haycash/toolbox/dto"
)

const targetRFC = "HCA061115AB3"

type fakeInvoiceAPI struct {
	rows   map[string][]dto.InvoiceRow
	items  map[string][]map[string]any
	xmls   map[string]string
	status dto.APIStatus
}

func (f *fakeInvoiceAPI) ListInvoices(_ context.Context, rfc string, _, _ time.Time) []dto.InvoiceRow {
	return f.rows[rfc]
}

func (f *fakeInvoiceAPI) ListInvoiceItems(_ context.Context, rfc string, _, _ time.Time) []map[string]any {
	return f.items[rfc]
}

func (f *fakeInvoiceAPI) CFDIURLCandidates(item map[string]any) []string {
	if u, ok := item["uuid"].(string); ok {
		return []string{"https://api.test/invoices/" + u + "/cfdi"}
	}
	return nil
}

func (f *fakeInvoiceAPI) ProbeFirstWorkingURL(_ context.Context, urls []string) (string, bool) {
	for _, u := range urls {
		if _, ok := f.xmls[u]; ok {
			return u, true
		}
	}
	return "", false
}

func (f *fakeInvoiceAPI) GetXML(_ context.Context, rawURL string) (string, bool) {
	body, ok := f.xmls[rawURL]
	return body, ok
}

func (f *fakeInvoiceAPI) Status() dto.APIStatus { return f.status }

func f64(v float64) *float64 { return &v }

func daysAgo(n int) string {
	return time.Now().AddDate(0, 0, -n).Format("2006-01-02")
}

// apiRows covers the filter matrix: two kept suppliers, a duplicate
// UUID, a credit note, a self-issued invoice, an unknown-FX foreign
// invoice and an invoice received by someone else.
func apiRows() []dto.InvoiceRow {
	return []dto.InvoiceRow{
		{UUID: "U1", EmisorRFC: "AAA010101AA1", EmisorNombre: "PROVEEDOR A", ReceptorRFC: targetRFC,
			Tipo: "I", MetodoPago: "PUE", Fecha: daysAgo(5), Total: f64(100), Moneda: "MXN"},
		{UUID: "U2", EmisorRFC: "AAA010101AA1", EmisorNombre: "PROVEEDOR A", ReceptorRFC: targetRFC,
			Tipo: "I", MetodoPago: "PPD", Fecha: daysAgo(100), Total: f64(200), Moneda: "MXN"},
		{UUID: "U3", EmisorRFC: "BBB020202BB2", EmisorNombre: "PROVEEDOR B", ReceptorRFC: targetRFC,
			Tipo: "I", MetodoPago: "PUE", Fecha: daysAgo(5), Total: f64(10), Moneda: "USD", TipoCambio: f64(17.5)},
		{UUID: "U1", EmisorRFC: "AAA010101AA1", EmisorNombre: "PROVEEDOR A", ReceptorRFC: targetRFC,
			Tipo: "I", MetodoPago: "PUE", Fecha: daysAgo(5), Total: f64(999), Moneda: "MXN"},
		{UUID: "U4", EmisorRFC: "AAA010101AA1", EmisorNombre: "PROVEEDOR A", ReceptorRFC: targetRFC,
			Tipo: "E", MetodoPago: "PUE", Fecha: daysAgo(5), Total: f64(50), Moneda: "MXN"},
		{UUID: "U5", EmisorRFC: targetRFC, EmisorNombre: "HAYCASH", ReceptorRFC: targetRFC,
			Tipo: "I", MetodoPago: "PUE", Fecha: daysAgo(5), Total: f64(50), Moneda: "MXN"},
		{UUID: "U6", EmisorRFC: "AAA010101AA1", EmisorNombre: "PROVEEDOR A", ReceptorRFC: targetRFC,
			Tipo: "I", MetodoPago: "PUE", Fecha: daysAgo(5), Total: f64(80), Moneda: "USD"},
		{UUID: "U7", EmisorRFC: "AAA010101AA1", EmisorNombre: "PROVEEDOR A", ReceptorRFC: "XXX010101XX1",
			Tipo: "I", MetodoPago: "PUE", Fecha: daysAgo(5), Total: f64(50), Moneda: "MXN"},
	}
}

func TestBuildReportAPISource(t *testing.T) {
	api := &fakeInvoiceAPI{rows: map[string][]dto.InvoiceRow{targetRFC: apiRows()}}
	svc := NewFactorajeService(api, discardLogger())

	resp, err := svc.BuildReport(context.Background(), &dto.FactorajeRequest{RFCs: targetRFC})

	assert.NoError(t, err)
	assert.Len(t, resp.Reports, 1)
	assert.Equal(t,
		[]string{"Últimos 12 meses", "Últimos 6 meses", "Últimos 3 meses", "Último mes"},
		resp.Intervals)

	report := resp.Reports[0]
	assert.Equal(t, targetRFC, report.RFC)
	assert.Equal(t, "api", report.Source)
	assert.Equal(t, 3, report.Invoices)
	assert.Len(t, report.Intervals, 4)

	year := report.Intervals[0]
	assert.Equal(t, 365, year.Interval.Days)
	if assert.Len(t, year.Suppliers, 2) {
		a := year.Suppliers[0]
		assert.Equal(t, "AAA010101AA1", a.RFC)
		assert.Equal(t, "PROVEEDOR A", a.Nombre)
		assert.Equal(t, 2, a.Facturas)
		assert.InDelta(t, 300.0, a.MontoMXN, 1e-9)
		assert.Equal(t, 1, a.FacturasPPD)
		assert.InDelta(t, 200.0, a.MontoPPD, 1e-9)
		assert.Equal(t, 1, a.FacturasPUE)
		assert.InDelta(t, 100.0, a.MontoPUE, 1e-9)
		assert.InDelta(t, 300.0/475.0, a.Participacion, 1e-9)

		b := year.Suppliers[1]
		assert.Equal(t, "BBB020202BB2", b.RFC)
		assert.Equal(t, 1, b.Facturas)
		assert.InDelta(t, 175.0, b.MontoMXN, 1e-9)
		assert.InDelta(t, 175.0/475.0, b.Participacion, 1e-9)
	}
	assert.InDelta(t, 475.0, year.TotalMXN, 1e-9)

	quarter := report.Intervals[2]
	assert.Equal(t, 92, quarter.Interval.Days)
	if assert.Len(t, quarter.Suppliers, 2) {
		assert.Equal(t, 1, quarter.Suppliers[0].Facturas, "the 100-day-old invoice falls outside")
		assert.InDelta(t, 100.0, quarter.Suppliers[0].MontoMXN, 1e-9)
	}
	assert.InDelta(t, 275.0, quarter.TotalMXN, 1e-9)
}

func TestBuildReportKeepsUnknownFXForCounts(t *testing.T) {
	api := &fakeInvoiceAPI{rows: map[string][]dto.InvoiceRow{targetRFC: apiRows()}}
	svc := NewFactorajeService(api, discardLogger())

	exclude := false
	resp, err := svc.BuildReport(context.Background(), &dto.FactorajeRequest{
		RFCs:      targetRFC,
		ExcludeFX: &exclude,
	})

	assert.NoError(t, err)
	report := resp.Reports[0]
	assert.Equal(t, 4, report.Invoices)

	year := report.Intervals[0]
	a := year.Suppliers[0]
	assert.Equal(t, 3, a.Facturas, "the unknown-FX invoice still counts")
	assert.InDelta(t, 300.0, a.MontoMXN, 1e-9, "but adds nothing to the sums")
	assert.Equal(t, 2, a.FacturasPUE)
	assert.InDelta(t, 100.0, a.MontoPUE, 1e-9)
}

func TestBuildReportXMLSource(t *testing.T) {
	cfdi := func(uuid, tipo, emisor, nombre string, total float64) string {
		return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Version="4.0" TipoDeComprobante=%q MetodoPago="PUE" Fecha="%sT10:00:00" Total="%.2f" Moneda="MXN">
  <cfdi:Emisor Rfc=%q Nombre=%q/>
  <cfdi:Receptor Rfc=%q Nombre="HAYCASH"/>
  <cfdi:Complemento>
    <tfd:TimbreFiscalDigital xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital" UUID=%q/>
  </cfdi:Complemento>
</cfdi:Comprobante>`, tipo, daysAgo(3), total, emisor, nombre, targetRFC, uuid)
	}

	api := &fakeInvoiceAPI{
		items: map[string][]map[string]any{targetRFC: {
			{"uuid": "X1"},
			{"uuid": "X2"},
			{"uuid": "X3"}, // probe finds no working URL
		}},
		xmls: map[string]string{
			"https://api.test/invoices/X1/cfdi": cfdi("X1", "I", "AAA010101AA1", "PROVEEDOR A", 1500),
			"https://api.test/invoices/X2/cfdi": cfdi("X2", "E", "AAA010101AA1", "PROVEEDOR A", 400),
		},
	}
	svc := NewFactorajeService(api, discardLogger())

	resp, err := svc.BuildReport(context.Background(), &dto.FactorajeRequest{
		RFCs:   targetRFC,
		Source: "xml",
	})

	assert.NoError(t, err)
	report := resp.Reports[0]
	assert.Equal(t, "xml", report.Source)
	assert.Equal(t, 1, report.Invoices, "credit note and unreachable CFDI dropped")

	year := report.Intervals[0]
	if assert.Len(t, year.Suppliers, 1) {
		assert.Equal(t, "AAA010101AA1", year.Suppliers[0].RFC)
		assert.InDelta(t, 1500.0, year.Suppliers[0].MontoMXN, 1e-9)
	}
}

func TestBuildReportIntervalSelection(t *testing.T) {
	api := &fakeInvoiceAPI{rows: map[string][]dto.InvoiceRow{targetRFC: apiRows()}}
	svc := NewFactorajeService(api, discardLogger())

	resp, err := svc.BuildReport(context.Background(), &dto.FactorajeRequest{
		RFCs:      targetRFC,
		Intervals: []string{"Último mes"},
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"Último mes"}, resp.Intervals)
	report := resp.Reports[0]
	assert.Len(t, report.Intervals, 1)
	assert.Equal(t, 30, report.Intervals[0].Interval.Days)

	_, err = svc.BuildReport(context.Background(), &dto.FactorajeRequest{
		RFCs:      targetRFC,
		Intervals: []string{"Última semana"},
	})
	assert.ErrorContains(t, err, "unknown interval")

	_, err = svc.BuildReport(context.Background(), &dto.FactorajeRequest{RFCs: "not an rfc!"})
	assert.ErrorIs(t, err, dto.ErrInvalidRFC)
}

func TestAmountMXN(t *testing.T) {
	cases := []struct {
		name string
		row  dto.InvoiceRow
		want *float64
	}{
		{"no total", dto.InvoiceRow{Moneda: "MXN"}, nil},
		{"mxn passthrough", dto.InvoiceRow{Total: f64(100), Moneda: "MXN"}, f64(100)},
		{"missing currency passthrough", dto.InvoiceRow{Total: f64(100)}, f64(100)},
		{"nan currency passthrough", dto.InvoiceRow{Total: f64(100), Moneda: "NAN"}, f64(100)},
		{"foreign with fx", dto.InvoiceRow{Total: f64(10), Moneda: "USD", TipoCambio: f64(17.5)}, f64(175)},
		{"foreign without fx", dto.InvoiceRow{Total: f64(10), Moneda: "USD"}, nil},
		{"foreign with zero fx", dto.InvoiceRow{Total: f64(10), Moneda: "USD", TipoCambio: f64(0)}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := amountMXN(tc.row)
			if tc.want == nil {
				assert.Nil(t, got)
			} else if assert.NotNil(t, got) {
				assert.InDelta(t, *tc.want, *got, 1e-9)
			}
		})
	}
}
