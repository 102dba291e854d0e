package executor

import (
	"context"
	"slices"

	"github.com/thisisjab/herdcomp/entity"
)

var defaultListItems = []string{"ID", "PEN", "LACT", "DIM", "RC", "MILK"}

const idColumn = "ear_tag"

func (e *Executor) list(ctx context.Context, c *call) (Result, error) {
	items := c.cmd.Items
	if items == nil {
		items = defaultListItems
	}

	codes, cols := c.columns(items)
	if len(codes) == 0 {
		codes = []string{"ID"}
	}

	// The animal id is always fetched so rows stay identifiable.
	if !slices.Contains(cols, idColumn) {
		cols = append([]string{idColumn}, cols...)
	}

	q := entity.ListQuery{
		TenantID: c.session.TenantID,
		Columns:  cols,
		Filters:  c.filters(c.cmd.Conditions),
		Limit:    e.cfg.ListLimit,
	}

	if s := c.cmd.SortBy; s != nil {
		if col, ok := c.column(s.Field); ok {
			q.SortColumn = col
			q.Descending = s.Descending
		}
	}

	page, err := e.backend.ListAnimals(ctx, q)
	if err != nil {
		return Result{}, err
	}

	data := make([]Row, 0, len(page.Rows))
	for _, row := range page.Rows {
		data = append(data, formatRow(row, codes))
	}

	return Result{
		Success: true,
		Type:    TypeList,
		Data:    data,
		Columns: codes,
		Count:   int64Ptr(page.Total),
	}, nil
}
