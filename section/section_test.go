package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/herdcomp/querier/parser"
)

func TestFor(t *testing.T) {
	tests := map[string]Section{
		"LIST ID FOR DIM<21":          FreshCows,
		"LIST ID FOR DIM<10":          FreshCows,
		"LIST ID FOR RC=2":            FreshCows,
		"LIST ID FOR RC=3 DIM>60":     ToBreed,
		"LIST ID FOR RC=4":            PregnancyCheck,
		"LIST ID FOR RC=6":            DryOff,
		"LIST ID FOR DCC>230":         DryOff,
		"LIST ID FOR RC=5 DCC>100":    DryOff,
		"LIST ID FOR SCC>200":         Alerts,
		"LIST ID FOR SCC>=400":        Alerts,
		"LIST ID FOR DIM<21 SCC>200":  FreshCows,
		"LIST ID FOR RC=2 AND RC=3":   FreshCows,
		"COUNT FOR RC=4 BY PEN":       PregnancyCheck,
		"LIST ID PEN RC DCC FOR RC=5": "",
	}

	for input, expected := range tests {
		cmd, err := parser.Parse(input)
		require.NoError(t, err, input)

		actual, ok := For(cmd)
		assert.Equal(t, expected != "", ok, input)
		assert.Equal(t, expected, actual, input)
	}
}

func TestForIgnoresNonMatchingConditions(t *testing.T) {
	for _, input := range []string{
		"LIST ID PEN",
		"LIST ID FOR DIM<30",
		"LIST ID FOR DIM>21",
		"LIST ID FOR SCC>100",
		"LIST ID FOR SCC<500",
		"LIST ID FOR PEN=2",
	} {
		cmd, err := parser.Parse(input)
		require.NoError(t, err, input)

		_, ok := For(cmd)
		assert.False(t, ok, input)
	}

	_, ok := For(nil)
	assert.False(t, ok)
}

func TestForDoesNotMutate(t *testing.T) {
	cmd, err := parser.Parse("LIST ID FOR RC=5 DCC>220")
	require.NoError(t, err)

	before, err := parser.Parse("LIST ID FOR RC=5 DCC>220")
	require.NoError(t, err)

	For(cmd)
	assert.True(t, cmd.Equal(before))
}

func TestTemplatesRoundTrip(t *testing.T) {
	for _, s := range All() {
		require.True(t, s.Valid())
		require.NotEmpty(t, s.Template())
		require.NotEqual(t, DefaultRoute, s.Route())

		if s == VetList {
			continue
		}

		cmd, err := parser.Parse(s.Template())
		require.NoError(t, err)

		actual, ok := For(cmd)
		require.True(t, ok, s)
		assert.Equal(t, s, actual)
	}
}

func TestFromQuickAccessName(t *testing.T) {
	s, ok := FromQuickAccessName("Pregnancy Check")
	require.True(t, ok)
	assert.Equal(t, PregnancyCheck, s)
	assert.Equal(t, "/animals?filter=preg-check", s.Route())

	_, ok = FromQuickAccessName("Heifers")
	assert.False(t, ok)

	assert.Equal(t, DefaultRoute, Section("heifers").Route())
	assert.Empty(t, Section("heifers").Template())
}
