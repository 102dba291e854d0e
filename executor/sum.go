package executor

import (
	"context"

	"github.com/thisisjab/herdcomp/entity"
	"github.com/thisisjab/herdcomp/fault"
	"github.com/thisisjab/herdcomp/fieldmap"
)

var defaultSumItems = []string{"MILK"}

// sumSpec is what a SUM command asks for once its fields are mapped.
type sumSpec struct {
	codes   []string
	columns []string
	avg     bool
	sum     bool
}

// sum handles SUM. \A selects averages and \T totals; without switches
// averages are shown.
func (e *Executor) sum(ctx context.Context, c *call) (Result, error) {
	items := c.cmd.Items
	if items == nil {
		items = defaultSumItems
	}

	spec := sumSpec{
		avg: c.cmd.HasSwitch("A") || len(c.cmd.Switches) == 0,
		sum: c.cmd.HasSwitch("T"),
	}

	spec.codes, spec.columns = c.columns(items)
	if len(spec.codes) == 0 {
		return Result{}, fault.New(fault.ValidationCode, "No valid fields specified for aggregation")
	}

	var groupCol string
	if c.cmd.GroupBy != "" {
		col, ok := fieldmap.CodeToColumn(c.cmd.GroupBy)
		if !ok {
			return Result{}, fault.Newf(fault.ValidationCode, "Unknown field: %s", c.cmd.GroupBy)
		}
		groupCol = col
	}

	rows, err := e.backend.Aggregate(ctx, entity.AggregateQuery{
		TenantID:    c.session.TenantID,
		Columns:     spec.columns,
		Filters:     c.filters(c.cmd.Conditions),
		GroupColumn: groupCol,
		IncludeAvg:  spec.avg,
		IncludeSum:  spec.sum,
	})
	if err != nil {
		return Result{}, err
	}

	if groupCol == "" {
		return simpleSum(spec, rows), nil
	}

	return groupedSum(spec, c.cmd.GroupBy, rows), nil
}

func simpleSum(spec sumSpec, rows []entity.AggregateRow) Result {
	var agg entity.AggregateRow
	if len(rows) > 0 {
		agg = rows[0]
	}

	data := make([]Row, 0, len(spec.codes))
	aggregates := make(map[string]any, len(spec.codes))

	for i, code := range spec.codes {
		col := spec.columns[i]
		row := Row{"FIELD": code}
		summary := map[string]any{"count": agg.Count[col]}

		if spec.avg {
			row["AVG"] = round(deref(agg.Avg[col]), 2)
			summary["avg"] = row["AVG"]
		}
		if spec.sum {
			row["SUM"] = round(deref(agg.Sum[col]), 2)
			summary["sum"] = row["SUM"]
		}
		row["COUNT"] = agg.Count[col]

		data = append(data, row)
		aggregates[code] = summary
	}

	columns := []string{"FIELD"}
	if spec.avg {
		columns = append(columns, "AVG")
	}
	if spec.sum {
		columns = append(columns, "SUM")
	}
	columns = append(columns, "COUNT")

	return Result{
		Success:    true,
		Type:       TypeSum,
		Data:       data,
		Columns:    columns,
		Aggregates: aggregates,
	}
}

// groupedSum renders one row per group and a TOTAL row. The TOTAL row adds
// up totals and counts, and weighs each group's average by its count.
func groupedSum(spec sumSpec, group string, rows []entity.AggregateRow) Result {
	data := make([]Row, 0, len(rows)+1)

	totals := make(map[string]float64, len(spec.columns))
	weighted := make(map[string]float64, len(spec.columns))
	counts := make(map[string]int64, len(spec.columns))
	var totalCount int64

	first := spec.columns[0]

	for _, agg := range rows {
		row := Row{group: groupLabel(agg.Group, group)}

		for i, code := range spec.codes {
			col := spec.columns[i]
			n := agg.Count[col]
			counts[col] += n

			if spec.avg {
				avg := deref(agg.Avg[col])
				row[code+"_AVG"] = round(avg, 2)
				weighted[col] += avg * float64(n)
			}
			if spec.sum {
				sum := deref(agg.Sum[col])
				row[code+"_SUM"] = round(sum, 2)
				totals[col] += sum
			}
		}

		row["COUNT"] = agg.Count[first]
		totalCount += agg.Count[first]

		data = append(data, row)
	}

	total := Row{group: totalLabel, "COUNT": totalCount}
	aggregates := make(map[string]any, len(spec.codes))
	columns := []string{group}

	for i, code := range spec.codes {
		col := spec.columns[i]
		summary := map[string]any{"count": counts[col]}

		if spec.avg {
			var avg float64
			if counts[col] > 0 {
				avg = weighted[col] / float64(counts[col])
			}
			total[code+"_AVG"] = round(avg, 2)
			summary["avg"] = total[code+"_AVG"]
			columns = append(columns, code+"_AVG")
		}
		if spec.sum {
			total[code+"_SUM"] = round(totals[col], 2)
			summary["sum"] = total[code+"_SUM"]
			columns = append(columns, code+"_SUM")
		}

		aggregates[code] = summary
	}

	data = append(data, total)
	columns = append(columns, "COUNT")

	return Result{
		Success:    true,
		Type:       TypeSum,
		Data:       data,
		Columns:    columns,
		Aggregates: aggregates,
	}
}
