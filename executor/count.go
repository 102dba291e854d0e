package executor

import (
	"context"

	"github.com/thisisjab/herdcomp/entity"
	"github.com/thisisjab/herdcomp/fault"
	"github.com/thisisjab/herdcomp/fieldmap"
)

const totalLabel = "TOTAL"

func (e *Executor) count(ctx context.Context, c *call) (Result, error) {
	if c.cmd.GroupBy != "" {
		return e.groupedCount(ctx, c)
	}

	n, err := e.backend.CountAnimals(ctx, entity.CountQuery{
		TenantID: c.session.TenantID,
		Filters:  c.filters(c.cmd.Conditions),
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Success: true,
		Type:    TypeCount,
		Count:   int64Ptr(n),
		Data:    []Row{{"label": "Count", "value": n}},
		Columns: []string{"Count"},
	}, nil
}

func (e *Executor) groupedCount(ctx context.Context, c *call) (Result, error) {
	group := c.cmd.GroupBy

	groupCol, ok := fieldmap.CodeToColumn(group)
	if !ok {
		return Result{}, fault.Newf(fault.ValidationCode, "Unknown field: %s", group)
	}

	groups, err := e.backend.CountByGroup(ctx, entity.CountQuery{
		TenantID:    c.session.TenantID,
		Filters:     c.filters(c.cmd.Conditions),
		GroupColumn: groupCol,
	})
	if err != nil {
		return Result{}, err
	}

	var total int64
	data := make([]Row, 0, len(groups)+1)

	for _, g := range groups {
		data = append(data, Row{group: groupLabel(g.Group, group), "COUNT": g.Count})
		total += g.Count
	}

	data = append(data, Row{group: totalLabel, "COUNT": total})

	return Result{
		Success: true,
		Type:    TypeCount,
		Data:    data,
		Columns: []string{group, "COUNT"},
		Count:   int64Ptr(total),
	}, nil
}
