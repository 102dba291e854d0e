package fieldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/herdcomp/querier/ast"
)

func TestColumnRoundTrip(t *testing.T) {
	for _, column := range Columns() {
		code, ok := ColumnToCode(column)
		require.True(t, ok, column)

		back, ok := CodeToColumn(code)
		require.True(t, ok, code)
		assert.Equal(t, column, back)
	}
}

func TestAliasIsCanonical(t *testing.T) {
	rc, _ := CodeToColumn("RC")
	rpro, _ := CodeToColumn("rpro")
	require.Equal(t, "reproductive_status", rc)
	require.Equal(t, rc, rpro)

	for range 5 {
		code, ok := ColumnToCode("reproductive_status")
		require.True(t, ok)
		assert.Equal(t, "RC", code)
	}
}

func TestUnknownLookups(t *testing.T) {
	_, ok := CodeToColumn("FAKEFIELD")
	assert.False(t, ok)

	_, ok = ColumnToCode("no_such_column")
	assert.False(t, ok)

	_, ok = Info("")
	assert.False(t, ok)

	assert.False(t, IsValidOperator("FAKEFIELD", ast.OpEqual))
}

func TestCodesAndColumns(t *testing.T) {
	codes := Codes()
	assert.Equal(t, "ID", codes[0])
	assert.Len(t, codes, len(entries))
	assert.Len(t, Columns(), len(entries)-1, "RC and RPRO share a column")

	codes[0] = "MUTATED"
	assert.Equal(t, "ID", Codes()[0])
}

func TestIsValidOperator(t *testing.T) {
	tests := []struct {
		code string
		op   ast.Operator
		want bool
	}{
		{"PEN", ast.OpEqual, true},
		{"PEN", ast.OpNotEqual, true},
		{"PEN", ast.OpGreater, false},
		{"DIM", ast.OpLessEqual, true},
		{"BDAT", ast.OpGreater, true},
		{"DIM", ast.Operator("!="), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidOperator(tt.code, tt.op), "%s %s", tt.code, tt.op)
	}
}

func TestByCategory(t *testing.T) {
	health := ByCategory(CategoryHealth)
	require.Len(t, health, 2)
	assert.Equal(t, "VC", health[0].Code)
	assert.Equal(t, "BCS", health[1].Code)

	assert.Empty(t, ByCategory(Category("none")))
}
