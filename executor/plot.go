package executor

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/thisisjab/herdcomp/fieldmap"
)

type PlotVariant string

const (
	PlotByDIM       PlotVariant = "DIM"
	PlotByDate      PlotVariant = "DATE"
	PlotByLactation PlotVariant = "LACT"
	PlotByPen       PlotVariant = "PEN"
)

// ParsePlotVariant maps the BY field of a PLOT command to its variant.
func ParsePlotVariant(groupBy string) PlotVariant {
	switch groupBy {
	case "TDAT", "DATE":
		return PlotByDate
	case "LACT", "LACTATION":
		return PlotByLactation
	case "PEN":
		return PlotByPen
	default:
		return PlotByDIM
	}
}

type dimPoint struct {
	EarTag    text   `json:"ear_tag" validate:"required"`
	Lactation number `json:"lactation_number"`
	DIM       number `json:"dim_at_test"`
	Value     number `json:"value"`
	TestDate  text   `json:"test_date"`
}

type datePoint struct {
	TestDate    text   `json:"test_date" validate:"required"`
	Value       number `json:"value"`
	AnimalCount number `json:"animal_count"`
}

type groupPoint struct {
	LactationGroup text   `json:"lactation_group"`
	PenName        text   `json:"pen_name"`
	Value          number `json:"value"`
	AnimalCount    number `json:"animal_count"`
}

type curvePoint struct {
	DIM   float64 `json:"dim"`
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}

type samplePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Count int64   `json:"count"`
}

type categoryPoint struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Count    int64   `json:"count"`
}

func (e *Executor) plot(ctx context.Context, c *call) (Result, error) {
	c.ignoreConditions()

	variant := ParsePlotVariant(c.cmd.GroupBy)

	field := "MILK"
	if variant == PlotByLactation {
		field = "305ME"
	}

	for _, item := range c.cmd.Items {
		if plotFieldKnown(item) {
			field = item
			break
		}
		c.drop(UnmappedField, item, "Field "+item+" cannot be plotted")
	}

	switch variant {
	case PlotByDate:
		return e.plotByDate(ctx, c, field)
	case PlotByLactation:
		return e.plotByGroup(ctx, c, field, "plot_by_lactation", "Lactation", "Lactation Group")
	case PlotByPen:
		return e.plotByGroup(ctx, c, field, "plot_by_pen", "Pen", "Pen")
	default:
		return e.plotByDIM(ctx, c, field)
	}
}

func chart(kind, title, xAxis, yAxis string, s []series) map[string]any {
	return map[string]any{
		"type":   kind,
		"title":  title,
		"xAxis":  xAxis,
		"yAxis":  yAxis,
		"series": s,
	}
}

func (e *Executor) plotByDIM(ctx context.Context, c *call, field string) (Result, error) {
	const procedure = "plot_by_dim"

	raw, err := e.backend.CallProcedure(ctx, procedure, map[string]any{
		"p_tenant_id": c.session.TenantID,
		"p_field":     field,
		"p_max_dim":   305,
	})
	if err != nil {
		return Result{}, err
	}

	rows, err := decodeRows[dimPoint](procedure, raw)
	if err != nil {
		return Result{}, err
	}

	var names []string
	curves := make(map[string][]curvePoint)
	data := make([]Row, 0, len(rows))

	for _, r := range rows {
		name := fmt.Sprintf("%s (L%d)", r.EarTag, r.Lactation.int())
		if _, ok := curves[name]; !ok {
			names = append(names, name)
		}
		curves[name] = append(curves[name], curvePoint{DIM: r.DIM.float(), Value: r.Value.float(), Date: string(r.TestDate)})

		data = append(data, Row{
			"Ear Tag":   string(r.EarTag),
			"Lactation": r.Lactation.int(),
			"DIM":       r.DIM.int(),
			field:       r.Value.float(),
			"Test Date": string(r.TestDate),
		})
	}

	s := make([]series, 0, len(names))
	for _, name := range names {
		points := curves[name]
		slices.SortStableFunc(points, func(a, b curvePoint) int { return cmp.Compare(a.DIM, b.DIM) })
		s = append(s, series{Name: name, Data: points})
	}

	return Result{
		Success:    true,
		Type:       TypeList,
		Data:       data,
		Columns:    []string{"Ear Tag", "Lactation", "DIM", field, "Test Date"},
		Aggregates: chart("line-chart", field+" Lactation Curve", "DIM (Days in Milk)", field, s),
	}, nil
}

func (e *Executor) plotByDate(ctx context.Context, c *call, field string) (Result, error) {
	const procedure = "plot_by_date"

	start, end := e.window(365)

	raw, err := e.backend.CallProcedure(ctx, procedure, map[string]any{
		"p_tenant_id":  c.session.TenantID,
		"p_field":      field,
		"p_start_date": start,
		"p_end_date":   end,
		"p_aggregate":  true,
	})
	if err != nil {
		return Result{}, err
	}

	rows, err := decodeRows[datePoint](procedure, raw)
	if err != nil {
		return Result{}, err
	}

	data := make([]Row, 0, len(rows))
	points := make([]samplePoint, 0, len(rows))

	for _, r := range rows {
		points = append(points, samplePoint{Date: string(r.TestDate), Value: r.Value.float(), Count: r.AnimalCount.int()})
		data = append(data, Row{
			"Test Date":    string(r.TestDate),
			field:          r.Value.float(),
			"Animal Count": r.AnimalCount.int(),
		})
	}

	return Result{
		Success: true,
		Type:    TypeList,
		Data:    data,
		Columns: []string{"Test Date", field, "Animal Count"},
		Aggregates: chart("line-chart", field+" Over Time", "Date", field,
			[]series{{Name: "Herd Average", Data: points}}),
	}, nil
}

// plotByGroup plots the average of field per lactation group or pen.
func (e *Executor) plotByGroup(ctx context.Context, c *call, field, procedure, by, xAxis string) (Result, error) {
	raw, err := e.backend.CallProcedure(ctx, procedure, map[string]any{
		"p_tenant_id": c.session.TenantID,
		"p_field":     field,
		"p_metric":    "avg",
	})
	if err != nil {
		return Result{}, err
	}

	rows, err := decodeRows[groupPoint](procedure, raw)
	if err != nil {
		return Result{}, err
	}

	valueColumn := "Avg " + field
	groupColumn := xAxis

	data := make([]Row, 0, len(rows))
	points := make([]categoryPoint, 0, len(rows))

	for _, r := range rows {
		category := string(r.LactationGroup)
		if by == "Pen" {
			category = string(r.PenName)
		}

		points = append(points, categoryPoint{Category: category, Value: r.Value.float(), Count: r.AnimalCount.int()})
		data = append(data, Row{
			groupColumn: category,
			valueColumn: r.Value.float(),
			"Count":     r.AnimalCount.int(),
		})
	}

	return Result{
		Success: true,
		Type:    TypeList,
		Data:    data,
		Columns: []string{groupColumn, valueColumn, "Count"},
		Aggregates: chart("bar-chart", fmt.Sprintf("Average %s by %s", field, by), xAxis, "Average "+field,
			[]series{{Name: field, Data: points}}),
	}, nil
}

// plotFieldKnown reports whether field can be plotted; 305ME is computed by
// the plot procedures rather than stored on the animal.
func plotFieldKnown(field string) bool {
	_, ok := fieldmap.CodeToColumn(field)
	return ok || field == "305ME"
}
