// Package storage implements the executor backend over SQL databases.
// PostgreSQL is the primary backend and the only one with report
// procedures; SQLite serves local use and tests; ClickHouse serves read
// replicas of the animals view.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/thisisjab/herdcomp/entity"
	"github.com/thisisjab/herdcomp/fieldmap"
)

const (
	animalsView  = "animals_with_calculated"
	tenantColumn = "tenant_id"

	defaultQueryTimeout = 30 * time.Second
)

// procedureCaller runs report procedures on backends that have them.
type procedureCaller func(ctx context.Context, db *sqlx.DB, name string, params map[string]any) ([]map[string]any, error)

// Storage is safe for concurrent use.
type Storage struct {
	db         *sqlx.DB
	name       string
	builder    *SQLBuilder
	logger     *slog.Logger
	timeout    time.Duration
	procedures procedureCaller
}

type Option func(*Storage)

// WithQueryTimeout bounds every query. Zero keeps the default.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Storage) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) { s.logger = logger }
}

func newStorage(db *sqlx.DB, name string, placeholder Placeholder, opts ...Option) *Storage {
	s := &Storage{
		db:   db,
		name: name,
		builder: NewSQLBuilder(SQLOptions{
			TableName:      animalsView,
			TenantColumn:   tenantColumn,
			AllowedColumns: fieldmap.Columns(),
			Placeholder:    placeholder,
		}),
		logger:  slog.New(slog.DiscardHandler),
		timeout: defaultQueryTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("storage", name)

	return s
}

// Connect verifies the database is reachable.
func (s *Storage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return s.db.Close()
}

// Name is the backend type, e.g. "postgres".
func (s *Storage) Name() string {
	return s.name
}

func (s *Storage) ListAnimals(ctx context.Context, q entity.ListQuery) (entity.ListPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.builder.BuildList(q)
	if err != nil {
		return entity.ListPage{}, err
	}

	rows, err := s.queryMaps(ctx, list)
	if err != nil {
		return entity.ListPage{}, fmt.Errorf("couldn't list animals: %w", err)
	}

	total, err := s.count(ctx, q.TenantID, q.Filters)
	if err != nil {
		return entity.ListPage{}, err
	}

	return entity.ListPage{Rows: rows, Total: total}, nil
}

func (s *Storage) CountAnimals(ctx context.Context, q entity.CountQuery) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.count(ctx, q.TenantID, q.Filters)
}

func (s *Storage) count(ctx context.Context, tenantID string, filters []entity.Filter) (int64, error) {
	q, err := s.builder.BuildCount(tenantID, filters)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowxContext(ctx, q.Query, q.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("couldn't count animals: %w", err)
	}

	return n, nil
}

func (s *Storage) CountByGroup(ctx context.Context, q entity.CountQuery) ([]entity.GroupCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	built, err := s.builder.BuildGroupCount(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.queryMaps(ctx, built)
	if err != nil {
		return nil, fmt.Errorf("couldn't count animals by %s: %w", q.GroupColumn, err)
	}

	out := make([]entity.GroupCount, 0, len(rows))
	for _, row := range rows {
		n, _ := toFloat(row["group_count"])
		out = append(out, entity.GroupCount{Group: row["group_key"], Count: int64(n)})
	}

	return out, nil
}

func (s *Storage) Aggregate(ctx context.Context, q entity.AggregateQuery) ([]entity.AggregateRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	built, err := s.builder.BuildAggregate(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.queryMaps(ctx, built)
	if err != nil {
		return nil, fmt.Errorf("couldn't aggregate animals: %w", err)
	}

	out := make([]entity.AggregateRow, 0, len(rows))
	for _, row := range rows {
		agg := entity.AggregateRow{
			Group: row["group_key"],
			Avg:   make(map[string]*float64, len(q.Columns)),
			Sum:   make(map[string]*float64, len(q.Columns)),
			Count: make(map[string]int64, len(q.Columns)),
		}

		for i, col := range q.Columns {
			if q.IncludeAvg {
				agg.Avg[col] = nullableFloat(row[aggregateAlias("avg", i)])
			}
			if q.IncludeSum {
				agg.Sum[col] = nullableFloat(row[aggregateAlias("sum", i)])
			}
			n, _ := toFloat(row[aggregateAlias("count", i)])
			agg.Count[col] = int64(n)
		}

		out = append(out, agg)
	}

	return out, nil
}

func (s *Storage) ListEvents(ctx context.Context, q entity.EventQuery) ([]entity.EventRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.queryMaps(ctx, s.builder.BuildEvents(q))
	if err != nil {
		return nil, fmt.Errorf("couldn't list events: %w", err)
	}

	out := make([]entity.EventRecord, 0, len(rows))
	for _, row := range rows {
		lactation, _ := toFloat(row["lactation_number"])

		record := entity.EventRecord{
			ID:        stringOf(row["id"]),
			Date:      dateOf(row["event_date"]),
			Type:      stringOf(row["event_type"]),
			EarTag:    stringOf(row["ear_tag"]),
			Name:      stringOf(row["name"]),
			PenID:     stringOf(row["pen_id"]),
			Lactation: int(lactation),
		}

		if details := stringOf(row["details"]); details != "" {
			if err := json.Unmarshal([]byte(details), &record.Details); err != nil {
				s.logger.Warn("couldn't decode event details.", "event-id", record.ID, "error", err)
			}
		}

		out = append(out, record)
	}

	return out, nil
}

func (s *Storage) CallProcedure(ctx context.Context, name string, params map[string]any) ([]map[string]any, error) {
	if s.procedures == nil {
		return nil, fmt.Errorf("procedure %s is not available on the %s backend", name, s.name)
	}

	if !identifierPattern.MatchString(name) {
		return nil, fmt.Errorf("invalid procedure name %q", name)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rows, err := s.procedures(ctx, s.db, name, params)
	s.logger.Debug("called procedure.", "procedure", name, "rows", len(rows), "took", time.Since(start))

	return rows, err
}

func (s *Storage) queryMaps(ctx context.Context, q BuildResult) ([]map[string]any, error) {
	return queryMaps(ctx, s.db, q.Query, q.Args)
}

// queryMaps runs a query and scans each row into a map keyed by column.
func queryMaps(ctx context.Context, db *sqlx.DB, query string, args []any) ([]map[string]any, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}

		for k, v := range row {
			row[k] = normalize(v)
		}

		out = append(out, row)
	}

	return out, rows.Err()
}

// normalize turns driver values into plain Go values.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func nullableFloat(v any) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func stringOf(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func dateOf(v any) string {
	s := stringOf(v)
	if len(s) > len(time.DateOnly) {
		return s[:len(time.DateOnly)]
	}
	return s
}
