package fieldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRCRoundTrip(t *testing.T) {
	for n := 0; n <= 8; n++ {
		assert.Equal(t, n, RCCode(RCStatus(n)), "code %d", n)
	}
}

func TestRCDefaults(t *testing.T) {
	assert.Equal(t, "blank", RCStatus(-1))
	assert.Equal(t, "blank", RCStatus(9))
	assert.Equal(t, 0, RCCode("unknown"))
	assert.Equal(t, 0, RCCode(""))
}

func TestRCAliases(t *testing.T) {
	assert.Equal(t, 5, RCCode("pregnant"))
	assert.Equal(t, 5, RCCode("PREG"))
	assert.Equal(t, 7, RCCode("died"))
	assert.Equal(t, 8, RCCode(" bullcalf "))
}

func TestRCLabels(t *testing.T) {
	assert.Equal(t, "PREG", RCLabel(5))
	assert.Equal(t, "Blank", RCLabel(42))
	assert.Equal(t, "5 - Preg", RCGroupLabel(5))
	assert.Equal(t, "7 - Sold/Die", RCGroupLabel(7))
	assert.Equal(t, "12 - Unknown", RCGroupLabel(12))
}

func TestDictionaries(t *testing.T) {
	rc := RCValues()
	assert.Len(t, rc, 9)
	assert.Equal(t, 0, rc[0].Code)
	assert.Equal(t, 8, rc[8].Code)

	vc := VCValues()
	assert.Len(t, vc, 11)
	assert.Equal(t, 1, vc[0].Code)
	assert.Equal(t, 11, vc[10].Code)

	label, ok := VCLabel(10)
	assert.True(t, ok)
	assert.Equal(t, "PROB", label)

	_, ok = VCLabel(0)
	assert.False(t, ok)
}

func TestSuggestedValues(t *testing.T) {
	assert.Len(t, SuggestedValues("rc"), 9)
	assert.Len(t, SuggestedValues("RPRO"), 9)
	assert.Len(t, SuggestedValues("VC"), 11)
	assert.Nil(t, SuggestedValues("DIM"))
}
