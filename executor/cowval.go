package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/thisisjab/herdcomp/fault"
	"github.com/thisisjab/herdcomp/fieldmap"
)

type CowvalVariant string

const (
	CowvalReport  CowvalVariant = "REPORT"
	CowvalUpdate  CowvalVariant = "UPDATE"
	CowvalSummary CowvalVariant = "SUMMARY"
	CowvalTop     CowvalVariant = "TOP"
	CowvalBottom  CowvalVariant = "BOTTOM"
)

func ParseCowvalVariant(s string) CowvalVariant {
	switch strings.ToUpper(s) {
	case "UPDATE", "U":
		return CowvalUpdate
	case "SUMMARY", "S":
		return CowvalSummary
	case "TOP", "T":
		return CowvalTop
	case "BOTTOM", "B":
		return CowvalBottom
	default:
		return CowvalReport
	}
}

const (
	cowvalReportLimit = 100
	cowvalRankLimit   = 20
	defaultCowvalSort = "relative_value"
)

type cowvalRow struct {
	EarTag          text   `json:"ear_tag" validate:"required"`
	PenName         text   `json:"pen_name"`
	Lactation       number `json:"lactation_number"`
	TotalValue      number `json:"total_value"`
	RelativeValue   number `json:"relative_value"`
	ProductionValue number `json:"production_value"`
	PregnancyValue  number `json:"pregnancy_value"`
	AgeAdjustment   number `json:"age_adjustment"`
}

type cowvalSummaryRow struct {
	TotalCows        number `json:"total_cows"`
	AvgCowValue      number `json:"avg_cow_value"`
	MedianCowValue   number `json:"median_cow_value"`
	TotalHerdValue   number `json:"total_herd_value"`
	AvgRelativeValue number `json:"avg_relative_value"`
	HighValueCount   number `json:"high_value_count"`
	LowValueCount    number `json:"low_value_count"`
}

func (e *Executor) cowval(ctx context.Context, c *call) (Result, error) {
	c.ignoreConditions()

	switch v := ParseCowvalVariant(c.cmd.Variant()); v {
	case CowvalUpdate:
		return e.cowvalUpdate(ctx, c)
	case CowvalSummary:
		return e.cowvalSummary(ctx, c)
	case CowvalTop, CowvalBottom:
		return e.cowvalRanked(ctx, c, v == CowvalTop)
	default:
		return e.cowvalReport(ctx, c)
	}
}

func (e *Executor) cowvalRows(ctx context.Context, c *call, sortBy string, desc bool, limit int) ([]cowvalRow, error) {
	return procedureRows[cowvalRow](ctx, e, c, "get_cowval_report", "Failed to get cow valuations", map[string]any{
		"p_sort_by":   sortBy,
		"p_sort_desc": desc,
		"p_limit":     limit,
	})
}

func penOrDash(r cowvalRow) string {
	if r.PenName == "" {
		return "-"
	}
	return string(r.PenName)
}

// cowvalReport lists valuations sorted by the BY field, highest first.
func (e *Executor) cowvalReport(ctx context.Context, c *call) (Result, error) {
	sortBy := defaultCowvalSort
	if c.cmd.GroupBy != "" {
		if col, ok := fieldmap.CodeToColumn(c.cmd.GroupBy); ok {
			sortBy = col
		} else {
			c.drop(UnmappedField, c.cmd.GroupBy, fmt.Sprintf("unknown sort field %s", c.cmd.GroupBy))
		}
	}

	rows, err := e.cowvalRows(ctx, c, sortBy, true, cowvalReportLimit)
	if err != nil {
		return Result{}, err
	}

	if len(rows) == 0 {
		return textResult(`No cow valuations available. Run COWVAL\UPDATE to calculate valuations.`), nil
	}

	data := make([]Row, 0, len(rows))
	var value, relative float64

	for _, r := range rows {
		value += r.TotalValue.float()
		relative += r.RelativeValue.float()

		data = append(data, Row{
			"ID":          string(r.EarTag),
			"Pen":         penOrDash(r),
			"Lact":        r.Lactation.int(),
			"Total Value": money(r.TotalValue.ptr(), 0),
			"Relative %":  decimal(r.RelativeValue.ptr(), 1) + "%",
			"Prod Value":  money(r.ProductionValue.ptr(), 0),
			"Preg Value":  money(r.PregnancyValue.ptr(), 0),
			"Age Adj":     decimal(r.AgeAdjustment.ptr(), 3),
		})
	}

	n := float64(len(rows))

	return Result{
		Success: true,
		Type:    TypeList,
		Data:    data,
		Columns: []string{"ID", "Pen", "Lact", "Total Value", "Relative %", "Prod Value", "Preg Value", "Age Adj"},
		Aggregates: map[string]any{
			"summary": []string{
				fmt.Sprintf("Total Cows: %d", len(rows)),
				"Average Value: " + formatMoney(value/n, 0),
				fmt.Sprintf("Average Relative: %.1f%%", relative/n),
				fmt.Sprintf("Sorted by: %s (descending)", sortBy),
			},
		},
	}, nil
}

func (e *Executor) cowvalRanked(ctx context.Context, c *call, top bool) (Result, error) {
	rows, err := e.cowvalRows(ctx, c, defaultCowvalSort, top, cowvalRankLimit)
	if err != nil {
		return Result{}, err
	}

	if len(rows) == 0 {
		return textResult("No cow valuations available"), nil
	}

	data := make([]Row, 0, len(rows))
	for i, r := range rows {
		data = append(data, Row{
			"Rank":        i + 1,
			"ID":          string(r.EarTag),
			"Pen":         penOrDash(r),
			"Lact":        r.Lactation.int(),
			"Total Value": money(r.TotalValue.ptr(), 0),
			"Relative %":  decimal(r.RelativeValue.ptr(), 1) + "%",
		})
	}

	summary := fmt.Sprintf("Top %d highest valued cows (by relative value %%)", cowvalRankLimit)
	if !top {
		summary = fmt.Sprintf("Bottom %d lowest valued cows - potential cull candidates", cowvalRankLimit)
	}

	return Result{
		Success:    true,
		Type:       TypeList,
		Data:       data,
		Columns:    []string{"Rank", "ID", "Pen", "Lact", "Total Value", "Relative %"},
		Aggregates: map[string]any{"summary": []string{summary}},
	}, nil
}

func (e *Executor) cowvalUpdate(ctx context.Context, c *call) (Result, error) {
	const procedure = "update_cow_valuations"

	rows, err := e.backend.CallProcedure(ctx, procedure, map[string]any{"p_tenant_id": c.session.TenantID})
	if err != nil {
		return Result{}, fault.New(fault.BackendCode, "Failed to update cow valuations").WithOriginal(err)
	}

	var updated int64
	if v, ok := scalar(rows); ok {
		updated = int64(v)
	}

	c.logger.Info("updated cow valuations.", "cows", updated)

	return textResult(fmt.Sprintf("Successfully updated valuations for %d cows", updated)), nil
}

func (e *Executor) cowvalSummary(ctx context.Context, c *call) (Result, error) {
	rows, err := procedureRows[cowvalSummaryRow](ctx, e, c, "get_valuation_summary", "Failed to get valuation summary", map[string]any{})
	if err != nil {
		return Result{}, err
	}

	if len(rows) == 0 {
		return textResult(`No valuation data available. Run COWVAL\UPDATE first.`), nil
	}

	s := rows[0]
	herd := money(s.TotalHerdValue.ptr(), 0)

	return Result{
		Success: true,
		Type:    TypeList,
		Data: []Row{
			{"Metric": "Total Cows Valued", "Value": s.TotalCows.int()},
			{"Metric": "Average Cow Value", "Value": money(s.AvgCowValue.ptr(), 0)},
			{"Metric": "Median Cow Value", "Value": money(s.MedianCowValue.ptr(), 0)},
			{"Metric": "Total Herd Value", "Value": herd},
			{"Metric": "Average Relative Value", "Value": decimal(s.AvgRelativeValue.ptr(), 1) + "%"},
			{"Metric": "High Value Cows (>100%)", "Value": s.HighValueCount.int()},
			{"Metric": "Low Value Cows (<70%)", "Value": s.LowValueCount.int()},
		},
		Columns: []string{"Metric", "Value"},
		Aggregates: map[string]any{
			"summary": []string{
				"Total Herd Value: " + herd,
				fmt.Sprintf("High Value: %d cows above heifer cost", s.HighValueCount.int()),
				fmt.Sprintf("Low Value: %d cows below 70%% of heifer cost (cull candidates)", s.LowValueCount.int()),
			},
		},
	}, nil
}
