package utils

import (
	"testing"

	"github.com/haycash/toolbox/dto"
	"github.com/stretchr/testify/assert"
)

const csfFisicaSample = `CONSTANCIA DE SITUACIÓN FISCAL
CÉDULA DE IDENTIFICACIÓN FISCAL
RFC: GOAP850101AB9
CURP: GOAP850101HDFLRD07
Nombre (s): PEDRO
Primer Apellido: GOMEZ
Segundo Apellido: ALVAREZ
Fecha inicio de operaciones: 15 DE MARZO DE 2010
Código Postal: 06700
Nombre de Vialidad: INSURGENTES SUR Número Exterior: 1457 Número Interior: 4 Nombre de la Colonia: INSURGENTES MIXCOAC Nombre del Municipio o Demarcación Territorial: BENITO JUAREZ Nombre de la Entidad Federativa: CIUDAD DE MEXICO
Correo Electrónico: pedro@example.com Tel. Fijo Lada: 55 Número: 55551234
Actividades Económicas:
Orden Actividad Económica Porcentaje Fecha Inicio
1 COMERCIO AL POR MENOR DE ROPA 60 01/01/2010
2 SERVICIOS DE CONSULTORIA 40 01/01/2010
Regímenes`

func TestParseCSFTextFisica(t *testing.T) {
	doc := ParseCSFText(csfFisicaSample, "")

	assert.Equal(t, dto.PersonFisica, doc.Tipo)
	assert.Equal(t, "GOAP850101AB9", doc.Row.RFC)
	assert.Equal(t, "GOAP850101HDFLRD07", doc.Row.CURP)
	assert.Equal(t, "PEDRO", doc.Row.Nombres)
	assert.Equal(t, "GOMEZ", doc.Row.LastName)
	assert.Equal(t, "ALVAREZ", doc.Row.SecondLastName)
	assert.Equal(t, "1985-01-01", doc.Row.BirthdayAt)
	assert.Equal(t, "2010-03-15", doc.Row.CreatedAt)
	assert.Equal(t, "06700", doc.Row.PostalCode)
	assert.Equal(t, "INSURGENTES SUR", doc.Row.StreetName)
	assert.Equal(t, "1457", doc.Row.ExteriorNumber)
	assert.Equal(t, "4", doc.Row.InteriorNumber)
	assert.Equal(t, "BENITO JUAREZ", doc.Row.Municipality)
	assert.Equal(t, "INSURGENTES MIXCOAC", doc.Row.Neighborhood)
	assert.Equal(t, "CIUDAD DE MEXICO", doc.Row.Province)
	assert.Equal(t, "mexicana", doc.Row.Nationality)
	assert.Equal(t, "MX", doc.Row.CountryCode)
	assert.Equal(t, "pedro@example.com", doc.Row.ContactEmail)
	assert.Equal(t, "+525555551234", doc.Row.ContactPhone)
	assert.Equal(t, "COMERCIO AL POR MENOR DE ROPA", doc.Row.Industry)
}

const csfMoralSample = `CONSTANCIA DE SITUACIÓN FISCAL
SERVICIO DE ADMINISTRACIÓN TRIBUTARIA
RFC: HCA061115AB3
Denominación/Razón Social: HAYCASH CAPITAL Régimen Capital: SOCIEDAD ANONIMA DE CAPITAL VARIABLE
Fecha inicio de operaciones: 1 DE ENERO DE 2007
Lugar y Fecha de Emisión GUADALAJARA, JALISCO A 3 DE JUNIO DE 2024
Actividades Económicas:
Orden Actividad Económica Porcentaje
1 SERVICIOS DE FACTORAJE FINANCIERO 100
Regímenes`

func TestParseCSFTextMoral(t *testing.T) {
	doc := ParseCSFText(csfMoralSample, "")

	assert.Equal(t, dto.PersonMoral, doc.Tipo)
	assert.Equal(t, "HCA061115AB3", doc.Row.RFC)
	assert.Equal(t, "HAYCASH CAPITAL", doc.Row.Nombres)
	assert.Equal(t, "", doc.Row.LastName)
	assert.Equal(t, "", doc.Row.SecondLastName)

	// A 12-char RFC carries no birth date.
	assert.Equal(t, "", doc.Row.BirthdayAt)

	// The emission date wins over the operations start date.
	assert.Equal(t, "2024-06-03", doc.Row.CreatedAt)
	assert.Equal(t, "SERVICIOS DE FACTORAJE FINANCIERO", doc.Row.Industry)
	assert.Equal(t, "", doc.Row.ContactPhone)
}

func TestParseCSFTextGluedLabels(t *testing.T) {
	text := `CONSTANCIA DE SITUACIÓN FISCAL
RFC: GOAP850101AB9
NombredeVialidad: REFORMA NúmeroExterior: 100 NúmeroInterior: NombredelaColonia: CENTRO`

	doc := ParseCSFText(text, "")

	assert.Equal(t, "REFORMA", doc.Row.StreetName)
	assert.Equal(t, "100", doc.Row.ExteriorNumber)
	assert.Equal(t, "", doc.Row.InteriorNumber)
	assert.Equal(t, "CENTRO", doc.Row.Neighborhood)
}

func TestParseCSFTextQRSeed(t *testing.T) {
	doc := ParseCSFText("CONSTANCIA DE SITUACIÓN FISCAL sin campos legibles", "GOAP850101AB9")

	assert.Equal(t, "GOAP850101AB9", doc.Row.RFC)
	assert.Equal(t, dto.PersonFisica, doc.Tipo)
	assert.Equal(t, "1985-01-01", doc.Row.BirthdayAt)

	// A QR payload that is not an RFC never overrides the text layer.
	doc = ParseCSFText(csfMoralSample, "https://example.com/not-an-rfc")
	assert.Equal(t, "HCA061115AB3", doc.Row.RFC)
}

func TestParseCSFTextNoFields(t *testing.T) {
	doc := ParseCSFText("documento ilegible sin etiquetas", "")

	assert.Equal(t, dto.PersonUnknown, doc.Tipo)
	assert.Equal(t, "", doc.Row.RFC)
	assert.Equal(t, "", doc.Row.Nombres)
}
