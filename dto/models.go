package dto

type DocumentType string

const (
	DocTypeCSF  DocumentType = "csf"
	DocTypeCFDI DocumentType = "cfdi"
)

type PersonType string

const (
	PersonFisica  PersonType = "fisica"
	PersonMoral   PersonType = "moral"
	PersonUnknown PersonType = "unknown"
)

// ExtractedRecord is the flat row produced for every fiscal document.
// Every field is a plain string; "" means the document did not yield it.
type ExtractedRecord struct {
	Nombres        string `json:"Nombres"`
	LastName       string `json:"last_name"`
	SecondLastName string `json:"second_last_name"`
	BirthdayAt     string `json:"birthday_at"`
	RFC            string `json:"RFC"`
	CURP           string `json:"curp"`
	Nationality    string `json:"nationality"`
	Industry       string `json:"industry"`
	IndustrySAT    string `json:"industry_SAT"`
	PostalCode     string `json:"codigo_postal"`
	Province       string `json:"province"`
	Municipality   string `json:"municipality"`
	Neighborhood   string `json:"neighborhood"`
	StreetName     string `json:"nombre_vialidad"`
	ExteriorNumber string `json:"numero_exterior"`
	InteriorNumber string `json:"numero_interior"`
	CountryCode    string `json:"clave_pais"`
	ContactPhone   string `json:"contact_phone"`
	ContactEmail   string `json:"contact_email"`
	CreatedAt      string `json:"created_at"`
}

// RecordColumns is the canonical column order for every tabular output.
var RecordColumns = []string{
	"Nombres", "last_name", "second_last_name", "birthday_at", "RFC",
	"curp", "nationality", "industry", "industry_SAT", "codigo_postal",
	"province", "municipality", "neighborhood", "nombre_vialidad",
	"numero_exterior", "numero_interior", "clave_pais", "contact_phone",
	"contact_email", "created_at",
}

// Values returns the record cells in RecordColumns order.
func (r ExtractedRecord) Values() []string {
	return []string{
		r.Nombres, r.LastName, r.SecondLastName, r.BirthdayAt, r.RFC,
		r.CURP, r.Nationality, r.Industry, r.IndustrySAT, r.PostalCode,
		r.Province, r.Municipality, r.Neighborhood, r.StreetName,
		r.ExteriorNumber, r.InteriorNumber, r.CountryCode, r.ContactPhone,
		r.ContactEmail, r.CreatedAt,
	}
}

// IsEmpty reports whether the parser got nothing at all out of a document.
func (r ExtractedRecord) IsEmpty() bool {
	for _, v := range r.Values() {
		if v != "" {
			return false
		}
	}
	return true
}

// DocumentDiagnostic is the per-file processing summary for a batch.
type DocumentDiagnostic struct {
	Filename   string       `json:"filename"`
	Chars      int          `json:"chars"`
	DocType    DocumentType `json:"doc_type"`
	PersonType PersonType   `json:"person_type"`
	UsedOCR    bool         `json:"used_ocr"`
	Empty      bool         `json:"empty"`
	Error      string       `json:"error,omitempty"`
}

// ContractFields holds the four anchored amounts pulled out of a
// factoring contract, with their raw matched text for audit.
type ContractFields struct {
	Filename          string   `json:"filename"`
	Capital           *float64 `json:"capital"`
	CapitalRaw        string   `json:"capital_raw"`
	ValorPagare       *float64 `json:"valor_pagare"`
	ValorPagareRaw    string   `json:"valor_pagare_raw"`
	ComisionApertura  *float64 `json:"comision_apertura"`
	ComisionRaw       string   `json:"comision_apertura_raw"`
	PagoMinimoMensual *float64 `json:"pago_minimo_mensual"`
	PagoMinimoRaw     string   `json:"pago_minimo_mensual_raw"`
}

// StatementSummary are the headline figures of a bank statement.
type StatementSummary struct {
	SaldoInicial   *float64 `json:"saldo_inicial"`
	Depositos      *float64 `json:"depositos"`
	Retiros        *float64 `json:"retiros"`
	SaldoFinal     *float64 `json:"saldo_final"`
	SaldoPromedio  *float64 `json:"saldo_promedio"`
	InteresMensual *float64 `json:"interes_mensual"`
	ISRMensual     *float64 `json:"isr_mensual"`
}

// Lead is one enriched row of the leads snapshot. Money columns are
// pre-formatted strings; unparseable amounts stay empty.
type Lead struct {
	Nombre                string `json:"nombre"`
	RFC                   string `json:"rfc"`
	Broker                string `json:"broker"`
	Analista              string `json:"analista"`
	VentasTPV             string `json:"ventas_tpv"`
	Depositos             string `json:"depositos"`
	VentaFacturada        string `json:"venta_facturada"`
	Estatus               string `json:"estatus_optools"`
	LostReason            string `json:"lost_reason_name"`
	PersonaTipo           string `json:"persona_tipo"`
	MontoCreditosAbiertos string `json:"monto_creditos_abiertos"`
	DeudaVencidaBuro      string `json:"deuda_vencida_buro"`
	CreatedMX             string `json:"created_mx"`
	Concentracion12Meses  string `json:"concentracion_12meses"`
	ReviewedBy            string `json:"reviewed_by"`
	Revisado              bool   `json:"revisado"`
	Giro                  string `json:"giro"`
	LeadID                string `json:"lead_id"`
}
