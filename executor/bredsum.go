package executor

import (
	"context"
	"fmt"

	"github.com/thisisjab/herdcomp/fault"
)

// BredsumVariant selects a breeding summary report.
type BredsumVariant string

const (
	BredsumBasic         BredsumVariant = "BASIC"
	BredsumByService     BredsumVariant = "B"
	BredsumByMonth       BredsumVariant = "C"
	BredsumByTechnician  BredsumVariant = "T"
	BredsumBySire        BredsumVariant = "S"
	BredsumByPen         BredsumVariant = "P"
	Bredsum21Day         BredsumVariant = "E"
	BredsumHeatDetection BredsumVariant = "H"
	BredsumQSum          BredsumVariant = "Q"
	BredsumByDIM         BredsumVariant = "N"
	BredsumByDayOfWeek   BredsumVariant = "W"
	BredsumProstaglandin BredsumVariant = "PG"
)

// ParseBredsumVariant maps a switch to its variant. Unknown or empty switches
// select the basic report.
func ParseBredsumVariant(s string) BredsumVariant {
	v := BredsumVariant(s)
	if _, ok := bredsumReports[v]; ok || v == BredsumProstaglandin {
		return v
	}
	return BredsumBasic
}

// reportColumn is a display column and the row key it is read from.
type reportColumn struct {
	Label string
	Key   string
}

type bredsumReport struct {
	procedure string
	columns   []reportColumn
}

var (
	colBreedings = reportColumn{"Breedings", "total_breedings"}
	colPreg      = reportColumn{"Preg", "pregnancies"}
	colCR        = reportColumn{"CR%", "conception_rate"}
	colSPC       = reportColumn{"SPC", "services_per_conception"}
)

var bredsumReports = map[BredsumVariant]bredsumReport{
	BredsumBasic: {"calculate_bredsum_basic", []reportColumn{
		{"Lactation", "lactation_group"}, colBreedings, colPreg, colCR, colSPC, {"Avg DIM", "avg_dim"},
	}},
	BredsumByService: {"calculate_bredsum_by_service", []reportColumn{
		{"Service #", "service_number"}, colBreedings, colPreg, colCR,
	}},
	BredsumByMonth: {"calculate_bredsum_by_month", []reportColumn{
		{"Month", "month"}, colBreedings, colPreg, colCR,
	}},
	BredsumByTechnician: {"calculate_bredsum_by_technician", []reportColumn{
		{"Technician", "technician_name"}, colBreedings, colPreg, colCR, colSPC,
	}},
	BredsumBySire: {"calculate_bredsum_by_sire", []reportColumn{
		{"Bull Name", "bull_name"}, {"Bull ID", "bull_id"}, colBreedings, colPreg, colCR, colSPC,
	}},
	BredsumByPen: {"calculate_bredsum_by_pen", []reportColumn{
		{"Pen", "pen_name"}, colBreedings, colPreg, colCR, colSPC,
	}},
	Bredsum21Day: {"calculate_bredsum_21day", []reportColumn{
		{"Period Start", "period_start"}, {"Eligible", "eligible"}, colBreedings, colPreg,
		{"PR%", "pregnancy_rate"}, {"HDR%", "heat_detection_rate"},
	}},
	BredsumHeatDetection: {"calculate_bredsum_heat_detection", []reportColumn{
		{"Metric", "metric"}, {"Value", "value"}, {"Count", "count"},
	}},
	BredsumQSum: {"calculate_bredsum_qsum", []reportColumn{
		{"Day #", "day_number"}, {"Date", "breeding_date"}, {"Daily Breed", "daily_breedings"},
		{"Daily Preg", "daily_pregnancies"}, {"Cum Breed", "cumulative_breedings"},
		{"Cum Preg", "cumulative_pregnancies"}, {"Cum CR%", "cumulative_conception_rate"},
	}},
	BredsumByDIM: {"calculate_bredsum_by_dim", []reportColumn{
		{"DIM Range", "dim_range"}, colBreedings, colPreg, colCR,
	}},
	BredsumByDayOfWeek: {"calculate_bredsum_by_dow", []reportColumn{
		{"Day of Week", "day_of_week"}, colBreedings, colPreg, colCR,
	}},
}

func (e *Executor) bredsum(ctx context.Context, c *call) (Result, error) {
	variant := ParseBredsumVariant(c.cmd.Variant())
	if variant == BredsumProstaglandin {
		return Result{}, fault.New(fault.NotImplementedCode, `BREDSUM \PG not yet implemented`)
	}

	c.ignoreConditions()

	report := bredsumReports[variant]
	start, end := e.window(e.cfg.BredsumDays)

	rows, err := e.backend.CallProcedure(ctx, report.procedure, map[string]any{
		"p_tenant_id":  c.session.TenantID,
		"p_start_date": start,
		"p_end_date":   end,
	})
	if err != nil {
		return Result{}, err
	}

	data, err := projectRows(report.procedure, report.columns, rows)
	if err != nil {
		return Result{}, err
	}

	var breedings, pregnancies float64
	for _, row := range rows {
		b, _ := toFloat(row[colBreedings.Key])
		p, _ := toFloat(row[colPreg.Key])
		breedings += b
		pregnancies += p
	}

	var rate float64
	if breedings > 0 {
		rate = round(pregnancies/breedings*100, 1)
	}

	return Result{
		Success: true,
		Type:    TypeList,
		Data:    data,
		Columns: labels(report.columns),
		Aggregates: map[string]any{
			"variant":               string(variant),
			"startDate":             start,
			"endDate":               end,
			"totalBreedings":        breedings,
			"totalPregnancies":      pregnancies,
			"overallConceptionRate": rate,
		},
	}, nil
}

// projectRows renames row keys to display labels. Column values must be
// scalars; a nested value means the procedure changed shape.
func projectRows(procedure string, columns []reportColumn, rows []map[string]any) ([]Row, error) {
	data := make([]Row, 0, len(rows))

	for i, row := range rows {
		out := make(Row, len(columns))

		for _, col := range columns {
			v, ok := row[col.Key]
			switch v.(type) {
			case map[string]any, []any:
				return nil, rowError(procedure, i, fmt.Errorf("column %s is not a scalar", col.Key))
			}

			if !ok || v == nil {
				v = ""
			}
			out[col.Label] = v
		}

		data = append(data, out)
	}

	return data, nil
}

func labels(columns []reportColumn) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Label
	}
	return out
}
