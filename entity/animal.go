package entity

import "github.com/thisisjab/herdcomp/querier/ast"

// Filter is a condition on a backend column. Value is a float64 or a string.
type Filter struct {
	Column   string       `json:"column"`
	Operator ast.Operator `json:"operator"`
	Value    any          `json:"value"`
}

// ListQuery selects animal rows of a single tenant.
type ListQuery struct {
	TenantID   string
	Columns    []string
	Filters    []Filter
	SortColumn string
	Descending bool
	Limit      int
}

// ListPage holds the selected rows and the number of rows matching the
// filters, ignoring the limit.
type ListPage struct {
	Rows  []map[string]any
	Total int64
}

type CountQuery struct {
	TenantID    string
	Filters     []Filter
	GroupColumn string
}

// GroupCount is one group of a grouped count. Group is nil for rows where
// the group column is null.
type GroupCount struct {
	Group any
	Count int64
}

type AggregateQuery struct {
	TenantID    string
	Columns     []string
	Filters     []Filter
	GroupColumn string
	IncludeAvg  bool
	IncludeSum  bool
}

// AggregateRow holds per-column aggregates, keyed by column. Avg and Sum are
// nil for columns without non-null values.
type AggregateRow struct {
	Group any
	Avg   map[string]*float64
	Sum   map[string]*float64
	Count map[string]int64
}
