package dto

// InvoiceRow is one received invoice, normalized from either the listing
// API payload or a downloaded CFDI. Pointer fields stay nil when the
// source did not carry the value.
type InvoiceRow struct {
	UUID           string   `json:"uuid"`
	EmisorRFC      string   `json:"emisor_rfc"`
	EmisorNombre   string   `json:"emisor_nombre"`
	ReceptorRFC    string   `json:"receptor_rfc"`
	ReceptorNombre string   `json:"receptor_nombre"`
	Tipo           string   `json:"tipo"`
	MetodoPago     string   `json:"metodo_pago"`
	Fecha          string   `json:"fecha"` // YYYY-MM-DD
	Total          *float64 `json:"total"`
	Moneda         string   `json:"moneda"`
	TipoCambio     *float64 `json:"tipo_cambio"`
}

// Interval is a lookback window of fixed length.
type Interval struct {
	Label string `json:"label"`
	Days  int    `json:"days"`
}

// Intervals lists the selectable lookback windows, longest first.
var Intervals = []Interval{
	{Label: "Últimos 12 meses", Days: 365},
	{Label: "Últimos 6 meses", Days: 183},
	{Label: "Últimos 3 meses", Days: 92},
	{Label: "Último mes", Days: 30},
}

// SupplierMetrics aggregates one issuer's invoices inside an interval.
type SupplierMetrics struct {
	RFC           string  `json:"rfc"`
	Nombre        string  `json:"nombre"`
	Facturas      int     `json:"facturas"`
	MontoMXN      float64 `json:"monto_mxn"`
	FacturasPPD   int     `json:"facturas_ppd"`
	MontoPPD      float64 `json:"monto_ppd"`
	FacturasPUE   int     `json:"facturas_pue"`
	MontoPUE      float64 `json:"monto_pue"`
	Participacion float64 `json:"participacion"`
}

// IntervalReport is the grouped view of one interval for one taxpayer.
type IntervalReport struct {
	Interval  Interval          `json:"interval"`
	From      string            `json:"from"` // YYYY-MM-DD
	To        string            `json:"to"`
	Suppliers []SupplierMetrics `json:"suppliers"`
	TotalMXN  float64           `json:"total_mxn"`
}

// TaxpayerReport bundles every requested interval for a single RFC.
type TaxpayerReport struct {
	RFC       string           `json:"rfc"`
	Source    string           `json:"source"` // "api" | "xml"
	Intervals []IntervalReport `json:"intervals"`
	Invoices  int              `json:"invoices"`
}

// APIStatus is the last observed Syntage call, for the status probe.
type APIStatus struct {
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code"`
	URL        string `json:"url"`
	Detail     string `json:"detail,omitempty"`
}
