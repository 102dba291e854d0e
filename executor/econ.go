package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/thisisjab/herdcomp/fault"
)

type EconVariant string

const (
	EconBasic EconVariant = "BASIC"
	EconPen   EconVariant = "PEN"
	EconTrend EconVariant = "TREND"
	EconCosts EconVariant = "COSTS"
)

func ParseEconVariant(s string) EconVariant {
	switch strings.ToUpper(s) {
	case "PEN":
		return EconPen
	case "TREND", "T":
		return EconTrend
	case "COSTS", "C":
		return EconCosts
	default:
		return EconBasic
	}
}

type econMetricRow struct {
	Metric     text   `json:"metric" validate:"required"`
	Value      number `json:"value"`
	PerCow     number `json:"per_cow"`
	PeriodDays number `json:"period_days"`
}

type econPenRow struct {
	PenName     text   `json:"pen_name"`
	CowCount    number `json:"cow_count"`
	AvgMilkKg   number `json:"avg_milk_kg"`
	MilkRevenue number `json:"milk_revenue"`
	FeedCosts   number `json:"feed_costs"`
	IOFC        number `json:"iofc"`
	IOFCPerCow  number `json:"iofc_per_cow"`
}

type econTrendRow struct {
	PeriodLabel text   `json:"period_label" validate:"required"`
	MilkRevenue number `json:"milk_revenue"`
	TotalCosts  number `json:"total_costs"`
	IOFC        number `json:"iofc"`
	NetProfit   number `json:"net_profit"`
	VolumeKg    number `json:"volume_kg"`
}

type econCostRow struct {
	CostType    text   `json:"cost_type" validate:"required"`
	Category    text   `json:"category"`
	TotalAmount number `json:"total_amount"`
	EntryCount  number `json:"entry_count"`
	Percentage  number `json:"percentage"`
}

func (e *Executor) econ(ctx context.Context, c *call) (Result, error) {
	c.ignoreConditions()

	switch ParseEconVariant(c.cmd.Variant()) {
	case EconPen:
		return e.econByPen(ctx, c)
	case EconTrend:
		return e.econTrends(ctx, c)
	case EconCosts:
		return e.econCosts(ctx, c)
	default:
		return e.econBasic(ctx, c)
	}
}

// procedureRows runs a report procedure and decodes its rows.
func procedureRows[T any](ctx context.Context, e *Executor, c *call, procedure, failure string, params map[string]any) ([]T, error) {
	params["p_tenant_id"] = c.session.TenantID

	rows, err := e.backend.CallProcedure(ctx, procedure, params)
	if err != nil {
		return nil, fault.New(fault.BackendCode, failure).WithOriginal(err)
	}

	return decodeRows[T](procedure, rows)
}

func (e *Executor) econBasic(ctx context.Context, c *call) (Result, error) {
	start, end := e.window(e.cfg.EconDays)

	rows, err := procedureRows[econMetricRow](ctx, e, c, "calculate_economics", "Failed to calculate economics",
		map[string]any{"p_start_date": start, "p_end_date": end})
	if err != nil {
		return Result{}, err
	}

	if len(rows) == 0 {
		return textResult("No economic data available for the selected period"), nil
	}

	data := make([]Row, 0, len(rows))
	byMetric := make(map[text]econMetricRow, len(rows))

	for _, r := range rows {
		byMetric[r.Metric] = r
		data = append(data, Row{
			"Metric":  string(r.Metric),
			"Total":   money(r.Value.ptr(), 2),
			"Per Cow": money(r.PerCow.ptr(), 2),
			"Period":  fmt.Sprintf("%d days", r.PeriodDays.int()),
		})
	}

	iofc := byMetric["IOFC (Income Over Feed Cost)"]

	return Result{
		Success: true,
		Type:    TypeList,
		Data:    data,
		Columns: []string{"Metric", "Total", "Per Cow", "Period"},
		Aggregates: map[string]any{
			"summary": []string{
				fmt.Sprintf("Period: %s - %s", start, end),
				"Total Revenue: " + formatMoney(byMetric["Total Milk Revenue"].Value.float(), 2),
				"Feed Costs: " + formatMoney(byMetric["Total Feed Costs"].Value.float(), 2),
				"IOFC: " + formatMoney(iofc.Value.float(), 2),
				"IOFC per Cow: " + formatMoney(iofc.PerCow.float(), 2),
			},
		},
	}, nil
}

func (e *Executor) econByPen(ctx context.Context, c *call) (Result, error) {
	start, end := e.window(e.cfg.EconDays)

	rows, err := procedureRows[econPenRow](ctx, e, c, "calculate_iofc_by_pen", "Failed to calculate IOFC by pen",
		map[string]any{"p_start_date": start, "p_end_date": end})
	if err != nil {
		return Result{}, err
	}

	if len(rows) == 0 {
		return textResult("No pen-level economic data available"), nil
	}

	data := make([]Row, 0, len(rows))
	var cows int64
	var revenue, iofc float64

	for _, r := range rows {
		cows += r.CowCount.int()
		revenue += r.MilkRevenue.float()
		iofc += r.IOFC.float()

		data = append(data, Row{
			"Pen":       string(r.PenName),
			"Cows":      r.CowCount.int(),
			"Avg Milk":  decimal(r.AvgMilkKg.ptr(), 1),
			"Revenue":   money(r.MilkRevenue.ptr(), 2),
			"Feed Cost": money(r.FeedCosts.ptr(), 2),
			"IOFC":      money(r.IOFC.ptr(), 2),
			"IOFC/Cow":  money(r.IOFCPerCow.ptr(), 2),
		})
	}

	var perCow float64
	if cows > 0 {
		perCow = iofc / float64(cows)
	}

	return Result{
		Success: true,
		Type:    TypeList,
		Data:    data,
		Columns: []string{"Pen", "Cows", "Avg Milk", "Revenue", "Feed Cost", "IOFC", "IOFC/Cow"},
		Aggregates: map[string]any{
			"summary": []string{
				fmt.Sprintf("Total Cows: %d", cows),
				"Total Revenue: " + formatMoney(revenue, 2),
				"Total IOFC: " + formatMoney(iofc, 2),
				"Avg IOFC/Cow: " + formatMoney(perCow, 2),
			},
		},
	}, nil
}

// point is one sample of a chart series.
type point struct {
	X any     `json:"x"`
	Y float64 `json:"y"`
}

type series struct {
	Name string `json:"name"`
	Data any    `json:"data"`
}

func (e *Executor) econTrends(ctx context.Context, c *call) (Result, error) {
	start, end := e.window(e.cfg.TrendDays)

	rows, err := procedureRows[econTrendRow](ctx, e, c, "calculate_profitability_trends", "Failed to calculate profitability trends",
		map[string]any{"p_start_date": start, "p_end_date": end, "p_interval": "week"})
	if err != nil {
		return Result{}, err
	}

	if len(rows) == 0 {
		return textResult("No trend data available"), nil
	}

	data := make([]Row, 0, len(rows))
	revenue := make([]point, 0, len(rows))
	iofc := make([]point, 0, len(rows))
	profit := make([]point, 0, len(rows))

	for _, r := range rows {
		label := string(r.PeriodLabel)

		data = append(data, Row{
			"Week":        label,
			"Revenue":     money(r.MilkRevenue.ptr(), 2),
			"Costs":       money(r.TotalCosts.ptr(), 2),
			"IOFC":        money(r.IOFC.ptr(), 2),
			"Profit":      money(r.NetProfit.ptr(), 2),
			"Volume (kg)": decimal(r.VolumeKg.ptr(), 0),
		})

		revenue = append(revenue, point{label, r.MilkRevenue.float()})
		iofc = append(iofc, point{label, r.IOFC.float()})
		profit = append(profit, point{label, r.NetProfit.float()})
	}

	return Result{
		Success: true,
		Type:    TypeList,
		Data:    data,
		Columns: []string{"Week", "Revenue", "Costs", "IOFC", "Profit", "Volume (kg)"},
		Aggregates: map[string]any{
			"type":  "line-chart",
			"title": "Profitability Trends (Weekly)",
			"xAxis": "Week",
			"yAxis": "Value",
			"series": []series{
				{Name: "Revenue", Data: revenue},
				{Name: "IOFC", Data: iofc},
				{Name: "Net Profit", Data: profit},
			},
		},
	}, nil
}

func (e *Executor) econCosts(ctx context.Context, c *call) (Result, error) {
	start, end := e.window(e.cfg.EconDays)

	rows, err := procedureRows[econCostRow](ctx, e, c, "get_cost_breakdown", "Failed to get cost breakdown",
		map[string]any{"p_start_date": start, "p_end_date": end})
	if err != nil {
		return Result{}, err
	}

	if len(rows) == 0 {
		return textResult("No cost entries found for the selected period"), nil
	}

	data := make([]Row, 0, len(rows))
	var total float64
	var entries int64

	for _, r := range rows {
		total += r.TotalAmount.float()
		entries += r.EntryCount.int()

		category := string(r.Category)
		if category == "" {
			category = "General"
		}

		data = append(data, Row{
			"Type":       capitalize(string(r.CostType)),
			"Category":   category,
			"Amount":     money(r.TotalAmount.ptr(), 2),
			"Entries":    r.EntryCount.int(),
			"Percentage": decimal(r.Percentage.ptr(), 1) + "%",
		})
	}

	return Result{
		Success: true,
		Type:    TypeList,
		Data:    data,
		Columns: []string{"Type", "Category", "Amount", "Entries", "Percentage"},
		Aggregates: map[string]any{
			"summary": []string{
				fmt.Sprintf("Period: %s - %s", start, end),
				"Total Costs: " + formatMoney(total, 2),
				fmt.Sprintf("Total Entries: %d", entries),
			},
		},
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
