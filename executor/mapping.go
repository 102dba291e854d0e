package executor

import (
	"fmt"
	"math"
	"strings"

	"github.com/thisisjab/herdcomp/entity"
	"github.com/thisisjab/herdcomp/fieldmap"
	"github.com/thisisjab/herdcomp/querier/ast"
)

// column maps an item code to its column. Unknown codes are dropped.
func (c *call) column(code string) (string, bool) {
	col, ok := fieldmap.CodeToColumn(code)
	if !ok {
		c.drop(UnmappedField, code, fmt.Sprintf("unknown field %s", code))
	}
	return col, ok
}

// columns maps item codes, returning the codes that survived with their columns.
func (c *call) columns(codes []string) ([]string, []string) {
	var kept, cols []string
	for _, code := range codes {
		if col, ok := c.column(code); ok {
			kept = append(kept, code)
			cols = append(cols, col)
		}
	}
	return kept, cols
}

// filters turns conditions into backend filters, dropping conditions on
// unknown fields, operators the field does not support and fractional RC codes.
func (c *call) filters(conds []ast.Condition) []entity.Filter {
	var out []entity.Filter

	for _, cond := range conds {
		col, ok := c.column(cond.Field)
		if !ok {
			continue
		}

		if !fieldmap.IsValidOperator(cond.Field, cond.Operator) {
			c.drop(InvalidOperator, cond.Field, fmt.Sprintf("operator %s is not supported for %s", cond.Operator, cond.Field))
			continue
		}

		if fieldmap.IsRC(cond.Field) && cond.Value.IsNumber() && cond.Value.Number() != math.Trunc(cond.Value.Number()) {
			c.drop(IgnoredCondition, cond.Field, fmt.Sprintf("%s is not a reproductive code", cond.Value.String()))
			continue
		}

		out = append(out, entity.Filter{
			Column:   col,
			Operator: cond.Operator,
			Value:    filterValue(cond),
		})
	}

	return out
}

// ignoreConditions drops every condition of a command that does not filter.
func (c *call) ignoreConditions() {
	for _, cond := range c.cmd.Conditions {
		c.drop(IgnoredCondition, cond.Field, fmt.Sprintf("%s does not support FOR conditions", c.cmd.Command))
	}
}

// filterValue converts a condition value to what the column stores. RC
// codes are stored as status strings.
func filterValue(cond ast.Condition) any {
	v := cond.Value

	if fieldmap.IsRC(cond.Field) {
		if v.IsNumber() {
			return fieldmap.RCStatus(int(v.Number()))
		}
		return strings.ToLower(v.String())
	}

	info, _ := fieldmap.Info(cond.Field)
	if info.Type == fieldmap.TypeString || info.Type == fieldmap.TypeDate {
		return v.String()
	}

	return v.Any()
}
