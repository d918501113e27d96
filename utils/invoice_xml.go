package utils

import (
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/haycash/toolbox/dto"
)

var (
	xmlWSRegex = regexp.MustCompile(`\s+`)

	validComprobanteTipos = map[string]bool{
		"I": true, "E": true, "P": true, "N": true, "T": true,
	}
)

// ParseInvoiceXML reads the header fields of a CFDI document. Elements
// are matched by local name so any namespace prefix works. Only the
// first Comprobante, Emisor, Receptor and TimbreFiscalDigital elements
// count; complemento sections may repeat those names further down.
func ParseInvoiceXML(raw string) (dto.InvoiceRow, bool) {
	var row dto.InvoiceRow
	var compSeen, emisorSeen, receptorSeen, tfdSeen bool

	dec := xml.NewDecoder(strings.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dto.InvoiceRow{}, false
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "Comprobante":
			if compSeen {
				continue
			}
			compSeen = true
			tipo := xmlCompactUpper(xmlAttr(se, "TipoDeComprobante"))
			if validComprobanteTipos[tipo] {
				row.Tipo = tipo
			}
			row.MetodoPago = xmlCompactUpper(xmlAttr(se, "MetodoPago"))
			if fecha := xmlAttr(se, "Fecha"); len(fecha) >= 10 {
				row.Fecha = fecha[:10]
			}
			row.Total = xmlNumber(xmlAttr(se, "Total"))
			row.TipoCambio = xmlNumber(xmlAttr(se, "TipoCambio"))
			row.Moneda = xmlCompactUpper(xmlAttr(se, "Moneda"))
		case "Emisor":
			if emisorSeen {
				continue
			}
			emisorSeen = true
			row.EmisorRFC = xmlCompactUpper(xmlAttr(se, "Rfc"))
			row.EmisorNombre = xmlAttr(se, "Nombre")
		case "Receptor":
			if receptorSeen {
				continue
			}
			receptorSeen = true
			row.ReceptorRFC = xmlCompactUpper(xmlAttr(se, "Rfc"))
			row.ReceptorNombre = xmlAttr(se, "Nombre")
		case "TimbreFiscalDigital":
			if tfdSeen {
				continue
			}
			tfdSeen = true
			row.UUID = xmlAttr(se, "UUID")
		}
	}

	if !compSeen {
		return dto.InvoiceRow{}, false
	}
	return row, true
}

func xmlAttr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func xmlCompactUpper(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(xmlWSRegex.ReplaceAllString(s, ""))
}

func xmlNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
