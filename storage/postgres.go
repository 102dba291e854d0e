package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

type PostgresStorageConfig struct {
	DSN string `yaml:"dsn"`

	// Schema, when set, is pinned first on the search_path.
	Schema string `yaml:"schema"`
}

func NewPostgresStorage(cfg PostgresStorageConfig, opts ...Option) (*Storage, error) {
	pgCfg, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}

	if cfg.Schema != "" {
		if !identifierPattern.MatchString(cfg.Schema) {
			return nil, fmt.Errorf("invalid postgres schema name %q", cfg.Schema)
		}
		if pgCfg.RuntimeParams == nil {
			pgCfg.RuntimeParams = make(map[string]string)
		}
		pgCfg.RuntimeParams["search_path"] = fmt.Sprintf(`"%s",public`, cfg.Schema)
	}

	db := sqlx.NewDb(stdlib.OpenDB(*pgCfg), "pgx")

	s := newStorage(db, "postgres", PlaceholderDollar, opts...)
	s.procedures = callPostgresFunction

	return s, nil
}

// callPostgresFunction calls a set-returning function with named arguments,
// e.g. SELECT * FROM plot_by_dim(p_tenant_id => $1, p_field => $2).
// Functions that return their rows as a single json value are expanded.
func callPostgresFunction(ctx context.Context, db *sqlx.DB, name string, params map[string]any) ([]map[string]any, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		if !identifierPattern.MatchString(k) {
			return nil, fmt.Errorf("invalid parameter name %q", k)
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	a := &args{style: PlaceholderDollar}
	named := make([]string, len(keys))
	for i, k := range keys {
		named[i] = fmt.Sprintf("%s => %s", k, a.add(params[k]))
	}

	query := fmt.Sprintf("SELECT * FROM %s(%s)", name, strings.Join(named, ", "))

	rows, err := queryMaps(ctx, db, query, a.values)
	if err != nil {
		return nil, err
	}

	return expandJSON(rows), nil
}

// expandJSON unwraps a single json column holding an array of objects.
func expandJSON(rows []map[string]any) []map[string]any {
	if len(rows) != 1 || len(rows[0]) != 1 {
		return rows
	}

	for _, v := range rows[0] {
		s, ok := v.(string)
		if !ok || !strings.HasPrefix(strings.TrimSpace(s), "[") {
			return rows
		}

		var expanded []map[string]any
		if err := json.Unmarshal([]byte(s), &expanded); err != nil {
			return rows
		}
		return expanded
	}

	return rows
}
