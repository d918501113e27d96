package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testAnchor = regexp.MustCompile(`cantidad\s+de\s+\$`)

func TestFindNearAnchorNearest(t *testing.T) {
	text := "anticipo de $ 100.00 bla bla la cantidad de $ 200.00 pagadera"

	value, window, ok := FindNearAnchor(text, testAnchor, MoneyRegex, 1200, PreferNearest)

	assert.True(t, ok)
	assert.Equal(t, "$ 200.00", value)
	assert.NotEmpty(t, window)
}

func TestFindNearAnchorFirstAndLast(t *testing.T) {
	text := "anticipo de $ 100.00 bla bla la cantidad de $ 200.00 pagadera"

	value, _, ok := FindNearAnchor(text, testAnchor, MoneyRegex, 1200, PreferFirst)
	assert.True(t, ok)
	assert.Equal(t, "$ 100.00", value)

	value, _, ok = FindNearAnchor(text, testAnchor, MoneyRegex, 1200, PreferLast)
	assert.True(t, ok)
	assert.Equal(t, "$ 200.00", value)
}

func TestFindNearAnchorMissing(t *testing.T) {
	value, window, ok := FindNearAnchor("sin montos aqui", testAnchor, MoneyRegex, 1200, PreferNearest)
	assert.False(t, ok)
	assert.Equal(t, "", value)
	assert.Equal(t, "", window)

	// Anchor present but no value inside the window.
	value, window, ok = FindNearAnchor("la cantidad de $ se determinara despues", testAnchor, MoneyRegex, 1200, PreferNearest)
	assert.False(t, ok)
	assert.Equal(t, "", value)
	assert.NotEmpty(t, window)
}

func TestFindNearAnchorWindowClamped(t *testing.T) {
	text := "$ 999.00 texto largo texto largo texto largo la cantidad de $ 50.00"

	// A narrow window must not see the far-away amount.
	value, _, ok := FindNearAnchor(text, testAnchor, MoneyRegex, 10, PreferNearest)

	assert.True(t, ok)
	assert.Equal(t, "$ 50.00", value)
}

func TestFindBeforeAnchor(t *testing.T) {
	anchor := regexp.MustCompile(`\(\s*el\s+["“]?monto\s+m[ií]nimo\s+mensual["”]?\s*\)`)
	text := `pagos de $ 10,000.00 y de $ 12,000.00 cada mes (el "monto mínimo mensual") restante`

	value, window, ok := FindBeforeAnchor(text, anchor, MoneyRegex, 2400)

	assert.True(t, ok)
	assert.Equal(t, "$ 12,000.00", value)
	assert.Contains(t, window, "$ 10,000.00")

	_, _, ok = FindBeforeAnchor("sin ancla", anchor, MoneyRegex, 2400)
	assert.False(t, ok)
}

func TestMoneyToNumber(t *testing.T) {
	v := MoneyToNumber("$ 1,234,567.89")
	assert.NotNil(t, v)
	assert.Equal(t, 1234567.89, *v)

	v = MoneyToNumber("$ 1 000")
	assert.NotNil(t, v)
	assert.Equal(t, 1000.0, *v)

	assert.Nil(t, MoneyToNumber(""))
	assert.Nil(t, MoneyToNumber("$ sin numero"))
}

func TestPercentToNumber(t *testing.T) {
	v := PercentToNumber("3.5 %")
	assert.NotNil(t, v)
	assert.Equal(t, 3.5, *v)

	assert.Nil(t, PercentToNumber(""))
}

func TestPercentRegex(t *testing.T) {
	assert.Equal(t, "3.5 %", PercentRegex.FindString("una comisión por apertura de 3.5 % anual"))
	assert.Equal(t, "10%", PercentRegex.FindString("el 10% del capital"))
	assert.Equal(t, "", PercentRegex.FindString("sin porcentaje"))
}
