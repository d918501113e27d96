package utils

import (
	"regexp"
	"strings"

	"github.com/haycash/toolbox/dto"
)

var (
	csfMarkerRegex  = regexp.MustCompile(`CONSTANCIA DE SITUACI[OÓ]N FISCAL|C[ÉE]DULA DE IDENTIFICACI[OÓ]N FISCAL|SERVICIO DE ADMINISTRACI[OÓ]N TRIBUTARIA`)
	cfdiMarkerRegex = regexp.MustCompile(`COMPROBANTE FISCAL DIGITAL|CFDI|FACTURA|USO CFDI|RECEPTOR|EMISOR`)
)

// DetectDocType classifies a fiscal PDF text as CSF or CFDI. CSF markers
// win over CFDI markers, and an unmarked document defaults to CSF.
func DetectDocType(text string) dto.DocumentType {
	t := strings.ToUpper(text)
	if csfMarkerRegex.MatchString(t) {
		return dto.DocTypeCSF
	}
	if cfdiMarkerRegex.MatchString(t) {
		return dto.DocTypeCFDI
	}
	return dto.DocTypeCSF
}
