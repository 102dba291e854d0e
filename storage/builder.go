package storage

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/thisisjab/herdcomp/entity"
	"github.com/thisisjab/herdcomp/querier/ast"
)

// Placeholder is the bind parameter style of a database driver.
type Placeholder int

const (
	// PlaceholderQuestion binds with ?, as SQLite and ClickHouse expect.
	PlaceholderQuestion Placeholder = iota
	// PlaceholderDollar binds with $1, $2, ..., as PostgreSQL expects.
	PlaceholderDollar
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLOptions holds configuration for the SQL query builder.
type SQLOptions struct {
	// TableName is the view animal queries select from.
	TableName string

	// TenantColumn scopes every query to a single tenant.
	TenantColumn string

	// AllowedColumns is the whitelist of columns that may appear in SELECT,
	// WHERE, GROUP BY and ORDER BY. Values are always bound as parameters;
	// column names cannot be, so anything outside this list is rejected.
	AllowedColumns []string

	Placeholder Placeholder
}

// SQLBuilder constructs parameterized animal queries.
type SQLBuilder struct {
	opts SQLOptions
}

func NewSQLBuilder(opts SQLOptions) *SQLBuilder {
	return &SQLBuilder{opts: opts}
}

// BuildResult holds the generated SQL query and its arguments.
type BuildResult struct {
	Query string
	Args  []any
}

// args collects bind parameters and renders their placeholders.
type args struct {
	style  Placeholder
	values []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	if a.style == PlaceholderDollar {
		return "$" + strconv.Itoa(len(a.values))
	}
	return "?"
}

func (b *SQLBuilder) newArgs() *args {
	return &args{style: b.opts.Placeholder}
}

func (b *SQLBuilder) checkColumn(col string) error {
	if !identifierPattern.MatchString(col) || !slices.Contains(b.opts.AllowedColumns, col) {
		return fmt.Errorf("column `%s` is not allowed", col)
	}
	return nil
}

// BuildList selects columns of the matching animals.
func (b *SQLBuilder) BuildList(q entity.ListQuery) (BuildResult, error) {
	for _, col := range q.Columns {
		if err := b.checkColumn(col); err != nil {
			return BuildResult{}, err
		}
	}

	a := b.newArgs()

	where, err := b.buildWhereClause(q.TenantID, q.Filters, a)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to build where clause: %w", err)
	}

	orderBy, err := b.buildOrderByClause(q.SortColumn, q.Descending)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to build order by clause: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(q.Columns, ", "), b.opts.TableName, where)
	if orderBy != "" {
		query += " " + orderBy
	}
	if q.Limit > 0 {
		query += " LIMIT " + a.add(q.Limit)
	}

	return BuildResult{Query: query, Args: a.values}, nil
}

// BuildCount counts the matching animals.
func (b *SQLBuilder) BuildCount(tenantID string, filters []entity.Filter) (BuildResult, error) {
	a := b.newArgs()

	where, err := b.buildWhereClause(tenantID, filters, a)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to build where clause: %w", err)
	}

	return BuildResult{
		Query: fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", b.opts.TableName, where),
		Args:  a.values,
	}, nil
}

// BuildGroupCount counts the matching animals per value of the group column.
func (b *SQLBuilder) BuildGroupCount(q entity.CountQuery) (BuildResult, error) {
	if err := b.checkColumn(q.GroupColumn); err != nil {
		return BuildResult{}, err
	}

	a := b.newArgs()

	where, err := b.buildWhereClause(q.TenantID, q.Filters, a)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to build where clause: %w", err)
	}

	return BuildResult{
		Query: fmt.Sprintf("SELECT %[1]s AS group_key, COUNT(*) AS group_count FROM %[2]s WHERE %[3]s GROUP BY %[1]s ORDER BY %[1]s",
			q.GroupColumn, b.opts.TableName, where),
		Args: a.values,
	}, nil
}

// Aggregate result columns are named by position, e.g. avg_0, sum_0, count_0.
func aggregateAlias(fn string, i int) string {
	return fn + "_" + strconv.Itoa(i)
}

// BuildAggregate computes avg, sum and count of each column, optionally per
// group. Counts skip nulls, so each column carries its own count.
func (b *SQLBuilder) BuildAggregate(q entity.AggregateQuery) (BuildResult, error) {
	if len(q.Columns) == 0 {
		return BuildResult{}, fmt.Errorf("no columns to aggregate")
	}

	var selects []string
	if q.GroupColumn != "" {
		if err := b.checkColumn(q.GroupColumn); err != nil {
			return BuildResult{}, err
		}
		selects = append(selects, q.GroupColumn+" AS group_key")
	}

	for i, col := range q.Columns {
		if err := b.checkColumn(col); err != nil {
			return BuildResult{}, err
		}

		if q.IncludeAvg {
			selects = append(selects, fmt.Sprintf("AVG(%s) AS %s", col, aggregateAlias("avg", i)))
		}
		if q.IncludeSum {
			selects = append(selects, fmt.Sprintf("SUM(%s) AS %s", col, aggregateAlias("sum", i)))
		}
		selects = append(selects, fmt.Sprintf("COUNT(%s) AS %s", col, aggregateAlias("count", i)))
	}

	a := b.newArgs()

	where, err := b.buildWhereClause(q.TenantID, q.Filters, a)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to build where clause: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(selects, ", "), b.opts.TableName, where)
	if q.GroupColumn != "" {
		query += fmt.Sprintf(" GROUP BY %[1]s ORDER BY %[1]s", q.GroupColumn)
	}

	return BuildResult{Query: query, Args: a.values}, nil
}

// BuildEvents selects the latest events of a tenant joined to their animal.
func (b *SQLBuilder) BuildEvents(q entity.EventQuery) BuildResult {
	a := b.newArgs()

	query := fmt.Sprintf(`SELECT e.id, e.event_date, e.event_type, e.details,
		a.ear_tag, a.name, a.pen_id, a.lactation_number
		FROM events e LEFT JOIN animals a ON a.id = e.animal_id
		WHERE e.%s = %s ORDER BY e.event_date DESC`, b.opts.TenantColumn, a.add(q.TenantID))

	if q.Limit > 0 {
		query += " LIMIT " + a.add(q.Limit)
	}

	return BuildResult{Query: query, Args: a.values}
}

// buildWhereClause always scopes to the tenant, then ANDs the filters.
func (b *SQLBuilder) buildWhereClause(tenantID string, filters []entity.Filter, a *args) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant is required")
	}

	parts := []string{fmt.Sprintf("%s = %s", b.opts.TenantColumn, a.add(tenantID))}

	for _, f := range filters {
		cond, err := b.formatComparison(f, a)
		if err != nil {
			return "", err
		}
		parts = append(parts, cond)
	}

	return strings.Join(parts, " AND "), nil
}

func (b *SQLBuilder) buildOrderByClause(column string, descending bool) (string, error) {
	if column == "" {
		return "", nil
	}

	if err := b.checkColumn(column); err != nil {
		return "", fmt.Errorf("field `%s` is not allowed for sorting", column)
	}

	direction := "ASC"
	if descending {
		direction = "DESC"
	}

	return fmt.Sprintf("ORDER BY %s %s", column, direction), nil
}

// formatComparison converts a filter into SQL.
func (b *SQLBuilder) formatComparison(f entity.Filter, a *args) (string, error) {
	if f.Column == "" || f.Value == nil {
		return "", fmt.Errorf("invalid filter: missing column or value")
	}

	if err := b.checkColumn(f.Column); err != nil {
		return "", err
	}

	var op string
	switch f.Operator {
	case ast.OpEqual, ast.OpNotEqual, ast.OpGreater, ast.OpGreaterEqual, ast.OpLess, ast.OpLessEqual:
		op = string(f.Operator)
	default:
		return "", fmt.Errorf("unsupported operator: %v", f.Operator)
	}

	return fmt.Sprintf("%s %s %s", f.Column, op, a.add(f.Value)), nil
}
