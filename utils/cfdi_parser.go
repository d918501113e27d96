package utils

import (
	"strings"

	"github.com/haycash/toolbox/dto"
)

// ParseCFDIText pulls the receptor's data out of an invoice text. A
// CFDI without an RFC is still treated as a persona física.
func ParseCFDIText(text string) ParsedDocument {
	var out dto.ExtractedRecord

	rfc := matchGroup(text, `RFC\s*(del)?\s*Receptor[:\s]*([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{2,3})`, 2)
	if rfc == "" {
		rfc = matchGroup(text, `Receptor.*?RFC[:\s]*([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{2,3})`, 1)
	}
	if rfc == "" {
		rfc = matchGroup(text, `RFC\s*[:\s]*([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{2,3})`, 1)
	}
	if rfc != "" {
		out.RFC = strings.ToUpper(rfc)
	}

	nom := matchGroup(text, `Nombre\s*(del)?\s*Receptor[:\s]*([A-ZÁÉÍÓÚÑ0-9 .,'-]{3,})`, 2)
	if nom == "" {
		nom = matchGroup(text, `Receptor.*?Nombre[:\s]*([A-ZÁÉÍÓÚÑ0-9 .,'-]{3,})`, 1)
	}
	if nom != "" {
		out.Nombres = Trim(nom)
	}

	if cp := matchGroup(text, `(C[oó]digo\s*Postal|C\.?P\.?|Lugar\s+de\s+expedici[oó]n)[:\s]*([0-9]{5})`, 2); cp != "" {
		out.PostalCode = cp
	}

	if ent := matchGroup(text, `(Estado|Entidad|Provincia)[:\s]*([A-ZÁÉÍÓÚÑ .'-]{3,})`, 2); ent != "" {
		out.Province = Trim(ent)
	}
	if mun := matchGroup(text, `(Municipio|Delegaci[oó]n)[:\s]*([A-ZÁÉÍÓÚÑ .'-]{3,})`, 2); mun != "" {
		out.Municipality = Trim(mun)
	}
	if col := matchGroup(text, `(Colonia)[:\s]*([A-ZÁÉÍÓÚÑ 0-9.'-]{3,})`, 2); col != "" {
		out.Neighborhood = Trim(col)
	}

	if vial := matchGroup(text, `(Nombre\s*de\s*Vialidad|Calle|Vialidad)[:\s]*([^\n\r,]{3,})`, 2); vial != "" {
		out.StreetName = cutAfterLabelNoise(vial)
	}

	numExt := matchGroup(text,
		`(?:No\.?\s*Ext\.?|N[úu]mero\s*Exterior)[:\s]*([^\n\r]{1,40}?)\s*(?:`+cfdiExtStops+`)`, 1)
	if numExt != "" {
		out.ExteriorNumber = Trim(numExt)
	}
	numInt := matchGroup(text,
		`(?:No\.?\s*Int\.?|N[úu]mero\s*Interior)[:\s]*([^\n\r]{0,40}?)\s*(?:`+cfdiIntStops+`)`, 1)
	if numInt != "" {
		out.InteriorNumber = Trim(numInt)
	}

	out.ContactEmail = extractEmail(text)
	out.ContactPhone = extractPhone(text)
	out.Nationality = "mexicana"
	out.CountryCode = "MX"

	if curp := matchGroup(text, `CURP[:\s]*([A-Z]{4}\d{6}[HM][A-Z]{5}[A-Z0-9]{2})`, 1); curp != "" {
		out.CURP = strings.ToUpper(curp)
	}

	dob := BirthdayFromRFC(out.RFC)
	if dob == "" {
		dob = BirthdayFromCURP(out.CURP)
	}
	out.BirthdayAt = dob

	tipo := PersonTypeFromRFC(out.RFC)
	if tipo == dto.PersonUnknown {
		tipo = dto.PersonFisica
	}
	return ParsedDocument{Tipo: tipo, Row: out}
}

const (
	cfdiExtStops = `(?:No\.?\s*Int\.?|N[úu]mero\s*Interior)|Colonia|C[oó]digo\s*Postal|C\.?P\.?|` +
		`Lugar\s+de\s+expedici[oó]n|Municipio|Delegaci[oó]n|Estado|Entidad|Provincia|$`

	cfdiIntStops = `Colonia|C[oó]digo\s*Postal|C\.?P\.?|Lugar\s+de\s+expedici[oó]n|` +
		`Municipio|Delegaci[oó]n|Estado|Entidad|Provincia|$`
)
