package dto

import "errors"

// Custom errors
var (
	ErrNoFilesUploaded = errors.New("at least one file is required")
	ErrNoRFCs          = errors.New("at least one RFC is required")
	ErrInvalidRFC      = errors.New("RFC must be 12 or 13 alphanumeric characters")
	ErrMissingAPIKey   = errors.New("missing Syntage API key")
	ErrEmptyCatalog    = errors.New("SAT catalog has no rows for this person type")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// CSFExtractResponse is the final response for a CSF/CFDI batch.
type CSFExtractResponse struct {
	Fisicas     []ExtractedRecord    `json:"personas_fisicas"`
	Morales     []ExtractedRecord    `json:"personas_morales"`
	Documents   []DocumentDiagnostic `json:"documents"`
	ProcessedAt string               `json:"processed_at"`
}

// ContractExtractResponse is the final response for a contract batch.
type ContractExtractResponse struct {
	Rows        []ContractFields `json:"rows"`
	Missing     map[string]int   `json:"missing"` // field -> count of misses
	ProcessedAt string           `json:"processed_at"`
}

// BBVAResponse describes the generated layout file.
type BBVAResponse struct {
	Filename     string `json:"filename"`
	Records      int    `json:"records"`
	RecordLength int    `json:"record_length"`
	ConfigSource string `json:"config_source"` // "Template" | "Default"
	Message      string `json:"message"`
}

// FactorajeResponse bundles the per-RFC reports. Intervals echoes the
// resolved selection in order; the first label is the reference for the
// fixed participation column of the workbook.
type FactorajeResponse struct {
	Reports     []TaxpayerReport `json:"reports"`
	Intervals   []string         `json:"intervals"`
	ProcessedAt string           `json:"processed_at"`
}

// EdocatResponse is the bank statement read-out.
type EdocatResponse struct {
	Summary   StatementSummary  `json:"summary"`
	Formatted map[string]string `json:"formatted"`
	Text      string            `json:"text"`
	Pages     int               `json:"pages"`
}

// LeadsKPIs are the review funnel counters over the filtered snapshot.
type LeadsKPIs struct {
	Pending    int    `json:"pending"`
	Reviewed   int    `json:"reviewed"`
	Conversion string `json:"conversion"` // "42.9%"
}

// LeadsResponse is one filtered view of the lead snapshot.
type LeadsResponse struct {
	Leads []Lead    `json:"leads"`
	KPIs  LeadsKPIs `json:"kpis"`
	Total int       `json:"total"`
}

// LeadsReviewResponse acknowledges a mark operation.
type LeadsReviewResponse struct {
	Marked     int    `json:"marked"`
	ReviewedBy string `json:"reviewed_by"`
}
