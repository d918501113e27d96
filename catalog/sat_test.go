package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/haycash/toolbox/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestNewActivity(t *testing.T) {
	act := NewActivity("Comercio al por menor de ropa||46211")

	assert.Equal(t, "Comercio al por menor de ropa||46211", act.Valor)
	assert.Equal(t, "Comercio al por menor de ropa", act.Desc)
	assert.Equal(t, "COMERCIO AL POR MENOR DE ROPA", act.Norm)
	assert.Equal(t, []string{"COMERCIO", "MENOR", "ROPA"}, act.Tokens)
}

func TestStoreLoadsCatalogs(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "lista_PF.csv",
		"valor\nCOMERCIO AL POR MENOR DE ROPA||46211\nSERVICIOS DE CONSULTORIA\n")
	writeCatalog(t, dir, "lista_PM.csv",
		"clave,valor\n1,SERVICIOS DE FACTORAJE FINANCIERO||52232\n")

	s := NewStore(dir)

	pf := s.Fisicas()
	require.Len(t, pf, 2)
	assert.Equal(t, "COMERCIO AL POR MENOR DE ROPA", pf[0].Desc)
	assert.Equal(t, "SERVICIOS DE CONSULTORIA", pf[1].Desc)

	pm := s.Morales()
	require.Len(t, pm, 1)
	assert.Equal(t, "SERVICIOS DE FACTORAJE FINANCIERO", pm[0].Desc)
}

func TestStoreValorColumnFallback(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "lista_PF.csv", "descripcion\nALQUILER DE AUTOMOVILES\n")

	s := NewStore(dir)

	pf := s.Fisicas()
	require.Len(t, pf, 1)
	assert.Equal(t, "ALQUILER DE AUTOMOVILES", pf[0].Valor)
}

func TestStoreMissingFiles(t *testing.T) {
	s := NewStore(t.TempDir())

	assert.Empty(t, s.Fisicas())
	assert.Empty(t, s.Morales())
}

func TestStoreForType(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "lista_PF.csv", "valor\nACTIVIDAD PF\n")
	writeCatalog(t, dir, "lista_PM.csv", "valor\nACTIVIDAD PM\n")

	s := NewStore(dir)

	assert.Equal(t, "ACTIVIDAD PM", s.ForType(dto.PersonMoral)[0].Desc)
	assert.Equal(t, "ACTIVIDAD PF", s.ForType(dto.PersonFisica)[0].Desc)
	assert.Equal(t, "ACTIVIDAD PF", s.ForType(dto.PersonUnknown)[0].Desc)
}

func TestStoreBOMHeader(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "lista_PF.csv", "\uFEFFvalor\nCOMPAÑÍA DE SEGUROS\n")

	s := NewStore(dir)

	pf := s.Fisicas()
	require.Len(t, pf, 1)
	assert.Equal(t, "COMPANIA DE SEGUROS", pf[0].Norm)
}
