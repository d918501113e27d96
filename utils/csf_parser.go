package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/haycash/toolbox/dto"
)

// ParsedDocument couples the detected person type with the extracted row.
type ParsedDocument struct {
	Tipo dto.PersonType
	Row  dto.ExtractedRecord
}

var rfcFullRegex = regexp.MustCompile(`^[A-ZÑ&]{3,4}\d{6}[A-Z0-9]{2,3}$`)

// matchGroup searches with case-insensitive, multi-line, dot-all flags
// and returns the requested capture group, or "" on no match.
func matchGroup(text, pattern string, idx int) string {
	m := regexp.MustCompile(`(?ims)` + pattern).FindStringSubmatch(text)
	if m == nil || idx >= len(m) {
		return ""
	}
	return m[idx]
}

// SAT PDFs frequently glue label words together. Reinsert the spaces so
// the field patterns, which expect spaced labels, keep working.
var csfLabelFixes = []struct {
	from *regexp.Regexp
	to   string
}{
	{regexp.MustCompile(`(?i)NombredelaEntidadFederativa`), "Nombre de la Entidad Federativa"},
	{regexp.MustCompile(`(?i)NombredelMunicipiooDemarcaciónTerritorial`), "Nombre del Municipio o Demarcación Territorial"},
	{regexp.MustCompile(`(?i)NombredelMunicipiooDemarcacionTerritorial`), "Nombre del Municipio o Demarcación Territorial"},
	{regexp.MustCompile(`(?i)NombredelaColonia`), "Nombre de la Colonia"},
	{regexp.MustCompile(`(?i)NombredelaLocalidad`), "Nombre de la Localidad"},
	{regexp.MustCompile(`(?i)TipodeVialidad`), "Tipo de Vialidad"},
	{regexp.MustCompile(`(?i)NombredeVialidad`), "Nombre de Vialidad"},
	{regexp.MustCompile(`(?i)NúmeroExterior`), "Número Exterior"},
	{regexp.MustCompile(`(?i)NumeroExterior`), "Número Exterior"},
	{regexp.MustCompile(`(?i)NúmeroInterior`), "Número Interior"},
	{regexp.MustCompile(`(?i)NumeroInterior`), "Número Interior"},
	{regexp.MustCompile(`(?i)Fechainiciodeoperaciones`), "Fecha inicio de operaciones"},
	{regexp.MustCompile(`(?i)Fechadeúltimocambiodeestado`), "Fecha de último cambio de estado"},
	{regexp.MustCompile(`(?i)PrimerApellido`), "Primer Apellido"},
	{regexp.MustCompile(`(?i)SegundoApellido`), "Segundo Apellido"},
	{regexp.MustCompile(`(?i)Denominación/RazónSocial`), "Denominación/Razón Social"},
	{regexp.MustCompile(`(?i)Denominacion/RazonSocial`), "Denominación/Razón Social"},
}

func repairGluedLabels(text string) string {
	for _, fix := range csfLabelFixes {
		text = fix.from.ReplaceAllString(text, fix.to)
	}
	return text
}

// Stop labels that end an address value when the next field begins.
// Each address field carries its own list, matching the SAT layout.
const (
	vialStops = `N[úu]mero\s*Exterior|N[úu]mero\s*Interior|Nombre\s+de\s+la\s+Colonia|` +
		`Nombre\s+de\s+la\s+Localidad|Nombre\s+del\s+Municipio|Demarcaci[oó]n\s+Territorial|` +
		`Nombre\s+de\s+la\s+Entidad\s+Federativa|Entre\s+Calle|Y\s+Calle|` +
		`Correo\s+Electr[oó]nico|Tel\.?\s*Fijo|Actividades?\s+Econ[oó]micas?|$`

	numExtStops = `N[úu]mero\s*Interior|Nombre\s+de\s+la\s+Colonia|Colonia|` +
		`Nombre\s+de\s+la\s+Localidad|Nombre\s+del\s+Municipio|Demarcaci[oó]n\s+Territorial|` +
		`Nombre\s+de\s+la\s+Entidad\s+Federativa|Entre\s+Calle|Y\s+Calle|` +
		`Correo\s+Electr[oó]nico|Tel\.?\s*Fijo|Actividades?\s+Econ[oó]micas?|$`

	numIntStops = `Nombre\s+de\s+la\s+Colonia|Colonia|Nombre\s+de\s+la\s+Localidad|` +
		`Nombre\s+del\s+Municipio|Demarcaci[oó]n\s+Territorial|Nombre\s+de\s+la\s+Entidad\s+Federativa|` +
		`Entre\s+Calle|Y\s+Calle|Correo\s+Electr[oó]nico|Tel\.?\s*Fijo|Actividades?\s+Econ[oó]micas?|$`
)

// ParseCSFText pulls every record field out of a Constancia de Situación
// Fiscal. qrRFC, when it passes the RFC shape, overrides whatever the
// text layer yielded; it comes from the document's QR code.
func ParseCSFText(text, qrRFC string) ParsedDocument {
	text = repairGluedLabels(text)
	var out dto.ExtractedRecord

	rfc := matchGroup(text, `R\.?F\.?C\.?[:\s]*([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{2,3})`, 1)
	if rfc == "" {
		rfc = matchGroup(text, `RFC[:\s]*([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{2,3})`, 1)
	}
	if rfc != "" {
		out.RFC = strings.ToUpper(rfc)
	}
	if seed := CleanRFC(qrRFC); rfcFullRegex.MatchString(seed) {
		out.RFC = seed
	}

	if curp := matchGroup(text, `CURP[:\s]*([A-Z]{4}\d{6}[HM][A-Z]{5}[A-Z0-9]{2})`, 1); curp != "" {
		out.CURP = strings.ToUpper(curp)
	}

	nombres := matchGroup(text,
		`Nombre\s*\(s\)[:\s]*([A-ZÁÉÍÓÚÑ0-9 .,'-]{2,}?)\s*(?:Primer\s*Apellido|Segundo\s*Apellido|R\.?F\.?C\.?|RFC|CURP|$)`, 1)
	ap1 := matchGroup(text, `Primer\s*Apellido[:\s]*([A-ZÁÉÍÓÚÑ .,'-]{2,})`, 1)
	ap2 := matchGroup(text, `Segundo\s*Apellido[:\s]*([A-ZÁÉÍÓÚÑ .,'-]{2,})`, 1)

	fullRS := matchGroup(text,
		`(?:Denominaci[oó]n|Raz[oó]n\s*Social|Nombre,\s*denominaci[oó]n\s*o\s*raz[oó]n\s*social)[:\s]*([A-ZÁÉÍÓÚÑ0-9 .,'&/-]{5,})`, 1)
	fullRSExact := matchGroup(text, `Denominaci[oó]n\s*/?\s*Raz[oó]n\s*Social\s*:\s*([^\r\n]+)`, 1)

	if nombres != "" {
		out.Nombres = Trim(nombres)
		if ap1 != "" {
			a := Trim(ap1)
			a = Trim(regexp.MustCompile(`(?is)\s*Segundo\s*Apellido.*$`).ReplaceAllString(a, ""))
			a = Trim(regexp.MustCompile(`(?is)\s*Fecha\s+inicio\s+de\s+operaciones.*$`).ReplaceAllString(a, ""))
			out.LastName = a
		}
		if ap2 != "" {
			a := Trim(ap2)
			a = Trim(regexp.MustCompile(`(?is)\s*Fecha\s+inicio\s+de\s+operaciones.*$`).ReplaceAllString(a, ""))
			out.SecondLastName = a
		}
	} else if fullRS != "" {
		out.Nombres = Trim(fullRS)
	}

	if fIni := matchGroup(text,
		`(?:Fecha\s*inicio\s*de\s*operaciones)[:\s]*([0-9]{1,2}\s*DE\s*[A-ZÁÉÍÓÚÑ]+\s*DE\s*\d{4})`, 1); fIni != "" {
		out.CreatedAt = NormalizeSpanishDate(fIni)
	}
	// The emission date wins over the operations start date when present.
	if fEmision := matchGroup(text,
		`Lugar\s+y\s+Fecha\s+de\s+Emisi[oó]n.*?A\s+([0-9]{1,2}\s*DE\s*[A-ZÁÉÍÓÚÑ]+\s*DE\s*\d{4})`, 1); fEmision != "" {
		out.CreatedAt = NormalizeSpanishDate(fEmision)
	}

	if cp := matchGroup(text, `(C[oó]digo\s*Postal|C\.?P\.?)[:\s]*([0-9]{5})`, 2); cp != "" {
		out.PostalCode = cp
	}

	vial := matchGroup(text, `(?:Nombre\s+de\s+Vialidad)[:\s]*([^\n\r]{3,}?)\s*(?:`+vialStops+`)`, 1)
	if vial == "" {
		vial = matchGroup(text, `(?:Vialidad|Calle)[:\s]*([^\n\r]{3,}?)\s*(?:`+vialStops+`)`, 1)
		if vial != "" && regexp.MustCompile(`(?i)Nombre\s+de\s+Vialidad\s*:`).MatchString(vial) {
			vial = regexp.MustCompile(`(?is)^.*?Nombre\s+de\s+Vialidad\s*:\s*`).ReplaceAllString(vial, "")
		}
	}
	if vial != "" {
		out.StreetName = cutAfterLabelNoise(vial)
	}

	if numExt := matchGroup(text, `N[úu]mero\s*Exterior[:\s]*([^\n\r]{1,40}?)\s*(?:`+numExtStops+`)`, 1); numExt != "" {
		out.ExteriorNumber = Trim(numExt)
	}

	if rawInt := matchGroup(text, `N[úu]mero\s*Interior[:\s]*([^\n\r]{0,40}?)\s*(?:`+numIntStops+`)`, 1); rawInt != "" {
		ni := Trim(rawInt)
		if ni != "" && !regexp.MustCompile(`(?i)^Nombre(\b|\s)`).MatchString(ni) {
			out.InteriorNumber = ni
		}
	}

	ent := matchGroup(text,
		`(Nombre\s+de\s+la\s+Entidad\s+Federativa|Entidad\s+Federativa)[:\s]*([A-ZÁÉÍÓÚÑ .'-]{3,})`, 2)
	mun := matchGroup(text,
		`(Nombre\s+del\s+Municipio\s+o\s+Demarcaci[oó]n\s+Territorial|Municipio|Demarcaci[oó]n\s*Territorial)[:\s]*([A-ZÁÉÍÓÚÑ .'-]{3,})`, 2)
	col := matchGroup(text, `(Nombre\s+de\s+la\s+Colonia|Colonia)[:\s]*([A-ZÁÉÍÓÚÑ 0-9.'-]{3,})`, 2)
	if ent != "" {
		out.Province = truncateBeforeNombre(Trim(ent))
	}
	if mun != "" {
		out.Municipality = truncateBeforeNombre(Trim(mun))
	}
	if col != "" {
		out.Neighborhood = truncateBeforeNombre(Trim(col))
	}

	if out.StreetName == "" {
		if vial2 := matchGroup(text, `(?:Nombre\s*de\s*Vialidad|Vialidad|Calle)[:\s]*([^\n\r,]{3,})`, 1); vial2 != "" {
			out.StreetName = cutAfterLabelNoise(vial2)
		}
	}

	out.Nationality = "mexicana"
	out.CountryCode = "MX"
	out.ContactEmail = extractEmail(text)
	out.ContactPhone = extractPhone(text)

	out.Industry = extractTopActivity(text)
	out.IndustrySAT = out.Industry

	dob := BirthdayFromRFC(out.RFC)
	if dob == "" {
		dob = BirthdayFromCURP(out.CURP)
	}
	out.BirthdayAt = dob

	tipo := PersonTypeFromRFC(out.RFC)
	if tipo == dto.PersonUnknown {
		switch {
		case out.LastName != "" || out.SecondLastName != "":
			tipo = dto.PersonFisica
		case out.Nombres != "":
			tipo = dto.PersonMoral
		}
	}

	if tipo == dto.PersonMoral {
		nameRaw := fullRSExact
		if nameRaw == "" {
			nameRaw = fullRS
		}
		if nameRaw != "" {
			out.Nombres = Trim(regexp.MustCompile(`(?is)\s*R[ée]gimen\s+Capital.*$`).ReplaceAllString(nameRaw, ""))
		}
		out.LastName = ""
		out.SecondLastName = ""
	}

	if tipo == dto.PersonFisica {
		if out.Nombres != "" {
			out.Nombres = Trim(regexp.MustCompile(`(?is)\s*Primer\s*Apellido.*$`).ReplaceAllString(out.Nombres, ""))
		}
		if out.LastName != "" {
			out.LastName = Trim(regexp.MustCompile(`(?is)\s*Segundo\s*Apellido.*$`).ReplaceAllString(out.LastName, ""))
			out.LastName = Trim(regexp.MustCompile(`(?is)\s*Fecha\s+inicio\s+de\s+operaciones.*$`).ReplaceAllString(out.LastName, ""))
		}
		if out.SecondLastName != "" {
			out.SecondLastName = Trim(regexp.MustCompile(`(?is)\s*Fecha\s+inicio\s+de\s+operaciones.*$`).ReplaceAllString(out.SecondLastName, ""))
		}
	}

	return ParsedDocument{Tipo: tipo, Row: out}
}

const activityStopMarkers = `Reg[ií]men(?:es)?|Obligaciones|Datos\s+del\s+domicilio|Datos\s+de\s+Ubicaci[oó]n|` +
	`Nombre\s+de\s+la\s+Entidad|Contacto|VALIDA\s+TU\s+INFORMACI[ÓO]N|` +
	`Av\.|Atenci[oó]n\s+telef[oó]nica|Correo\s+Electr[oó]nico|Tel\.?\s*Fijo`

var (
	activityBlockRegex  = regexp.MustCompile(`(?is)Actividades?\s*Econ[oó]micas?\s*:?\s*[\r\n\s]*(.+?)(?:` + activityStopMarkers + `|$)`)
	activityHeaderRegex = regexp.MustCompile(`(?is)\s*Orden\s+Actividad\s+Econ[oó]mica\s+Porcentaje[^0-9]*`)
	activityRowRegex    = regexp.MustCompile(`(?i)(?:^|\s)(\d+)\s+([A-ZÁÉÍÓÚÑ0-9 .,/'\-\(\)]+?)\s+(\d{1,3})\s*%?\b(?:\s+\d{1,2}[/-]\d{1,2}[/-]\d{2,4})?`)
	activityLineRegex   = regexp.MustCompile(`(?im)^[\s\-•]*([A-ZÁÉÍÓÚÑ][A-ZÁÉÍÓÚÑ0-9 .,/'\-\(\)]{5,})`)
)

// extractTopActivity finds the declared economic activity with the
// highest percentage inside the Actividades Económicas block.
func extractTopActivity(text string) string {
	m := activityBlockRegex.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return ""
	}
	block := multiSpaceRegex.ReplaceAllString(m[1], " ")
	block = activityHeaderRegex.ReplaceAllString(block, " ")

	rows := activityRowRegex.FindAllStringSubmatch(block, -1)
	if len(rows) > 0 {
		bestIdx, bestPct := -1, -1
		for i, row := range rows {
			pct, err := strconv.Atoi(row[3])
			if err != nil {
				continue
			}
			if pct > bestPct {
				bestPct = pct
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			return cleanActivity(rows[bestIdx][2])
		}
		for _, row := range rows {
			if act := cleanActivity(row[2]); act != "" {
				return act
			}
		}
	}

	if m2 := activityLineRegex.FindStringSubmatch(block); m2 != nil {
		return cleanActivity(m2[1])
	}
	return ""
}

func cleanActivity(x string) string {
	x = Trim(x)
	x = regexp.MustCompile(`(?i)\b\d{1,3}\s*%\b.*$`).ReplaceAllString(x, "")
	x = regexp.MustCompile(`(?i)\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b.*$`).ReplaceAllString(x, "")
	return Trim(x)
}

var labelNoiseStops = []string{
	`N[úu]mero\s*Exterior`, `N[úu]mero\s*Interior`, `Nombre\s+de\s+la\s+Colonia`,
	`Nombre\s+de\s+la\s+Localidad`, `Nombre\s+del\s+Municipio`, `Demarcaci[oó]n\s+Territorial`,
	`Nombre\s+de\s+la\s+Entidad\s+Federativa`, `Entre\s+Calle`, `Y\s+Calle`,
	`Correo\s+Electr[oó]nico`, `Tel\.?\s*Fijo`, `Actividades?\s+Econ[oó]micas?`,
}

var labelNoiseRegex = regexp.MustCompile(`(?is)\s*(?:` + strings.Join(labelNoiseStops, "|") + `)\b.*$`)

func cutAfterLabelNoise(x string) string {
	if x == "" {
		return x
	}
	return Trim(labelNoiseRegex.ReplaceAllString(x, ""))
}

var beforeNombreRegex = regexp.MustCompile(`(?is)\s*NOMBRE\b.*$`)

func truncateBeforeNombre(x string) string {
	if x == "" {
		return x
	}
	return Trim(beforeNombreRegex.ReplaceAllString(x, ""))
}

func extractEmail(text string) string {
	if m := matchGroup(text, `(Correo Electr[oó]nico|Email|E[- ]?mail)[:\s]*([A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,})`, 2); m != "" {
		return m
	}
	return matchGroup(text, `([A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,})`, 1)
}

func extractPhone(text string) string {
	lada := matchGroup(text, `Lada[:\s]*([0-9]{2,4})`, 1)
	num := matchGroup(text, `N[uú]mero[:\s]*([0-9\- ]{5,})`, 1)
	if lada != "" && num != "" {
		return anySpaceRegex.ReplaceAllString("+52"+lada+num, "")
	}
	return matchGroup(text, `(\+?52)?[\s-]*\(?[0-9]{2,3}\)?[\s-]*[0-9]{3,4}[\s-]*[0-9]{4}`, 0)
}
