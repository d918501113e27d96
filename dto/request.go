package dto

import (
	"errors"
	"mime/multipart"
	"regexp"
	"strings"
)

var rfcShapeRegex = regexp.MustCompile(`^[A-ZÑ&0-9]{12,13}$`)

// CSFExtractRequest carries a batch of CSF/CFDI PDFs.
type CSFExtractRequest struct {
	Files  []*multipart.FileHeader `form:"files[]" binding:"required"`
	UseOCR bool                    `form:"use_ocr"`
	// MatchSAT resolves industry_SAT through the catalog matcher; on by
	// default, matching degrades by itself when no catalog or key exists.
	MatchSAT bool `form:"match_sat,default=true"`
}

// Validate performs basic validation on the request
func (r *CSFExtractRequest) Validate() error {
	if len(r.Files) == 0 {
		return ErrNoFilesUploaded
	}
	return nil
}

// ContractExtractRequest carries a batch of contract PDFs.
type ContractExtractRequest struct {
	Files []*multipart.FileHeader `form:"files[]" binding:"required"`
}

func (r *ContractExtractRequest) Validate() error {
	if len(r.Files) == 0 {
		return ErrNoFilesUploaded
	}
	return nil
}

// BBVARequest carries the dispersion table plus layout parameters.
type BBVARequest struct {
	File     *multipart.FileHeader `form:"file" binding:"required"`
	Template *multipart.FileHeader `form:"template"`
	// FechaProc is the process date as AAAAMMDD; empty means today.
	FechaProc string `form:"fecha_proc"`
	RefStart  string `form:"ref_start"`
	Block     string `form:"block"`
}

func (r *BBVARequest) Validate() error {
	if r.File == nil {
		return ErrNoFilesUploaded
	}
	if r.FechaProc != "" && !regexp.MustCompile(`^\d{8}$`).MatchString(r.FechaProc) {
		return errors.New("fecha_proc must be AAAAMMDD")
	}
	return nil
}

// FactorajeRequest asks for the supplier concentration report.
type FactorajeRequest struct {
	// RFCs is a comma or newline separated list of taxpayer RFCs.
	RFCs      string   `form:"rfcs" json:"rfcs" binding:"required"`
	Source    string   `form:"source" json:"source"`       // "api" | "xml"
	Intervals []string `form:"intervals" json:"intervals"` // empty = all
	ExcludeFX *bool    `form:"exclude_fx" json:"exclude_fx"`
}

// RFCList splits, trims and uppercases the requested RFCs.
func (r *FactorajeRequest) RFCList() []string {
	fields := strings.FieldsFunc(r.RFCs, func(c rune) bool {
		return c == ',' || c == '\n' || c == ';' || c == ' '
	})
	out := make([]string, 0, len(fields))
	seen := map[string]bool{}
	for _, f := range fields {
		f = strings.ToUpper(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func (r *FactorajeRequest) Validate() error {
	list := r.RFCList()
	if len(list) == 0 {
		return ErrNoRFCs
	}
	for _, rfc := range list {
		if !rfcShapeRegex.MatchString(rfc) {
			return ErrInvalidRFC
		}
	}
	switch r.Source {
	case "", "api", "xml":
	default:
		return errors.New("source must be api or xml")
	}
	return nil
}

// EdocatRequest carries one bank statement PDF.
type EdocatRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
	Lang string                `form:"lang"`
}

func (r *EdocatRequest) Validate() error {
	if r.File == nil {
		return ErrNoFilesUploaded
	}
	return nil
}

var isoDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// LeadsQueryRequest selects one view of the lead snapshot. The date
// range only narrows the pending view; both dates must be set for it
// to apply.
type LeadsQueryRequest struct {
	Reviewed bool     `form:"reviewed"`
	From     string   `form:"from"` // YYYY-MM-DD
	To       string   `form:"to"`
	Statuses []string `form:"statuses"`
}

func (r *LeadsQueryRequest) Validate() error {
	for _, d := range []string{r.From, r.To} {
		if d != "" && !isoDateRegex.MatchString(d) {
			return errors.New("dates must be YYYY-MM-DD")
		}
	}
	return nil
}

// LeadsReviewRequest marks a set of leads as reviewed.
type LeadsReviewRequest struct {
	LeadIDs    []string `json:"lead_ids" binding:"required"`
	ReviewedBy string   `json:"reviewed_by" binding:"required"`
}

func (r *LeadsReviewRequest) Validate() error {
	if len(r.LeadIDs) == 0 {
		return errors.New("lead_ids is required")
	}
	if strings.TrimSpace(r.ReviewedBy) == "" {
		return errors.New("reviewed_by is required")
	}
	return nil
}
