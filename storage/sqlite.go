package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/thisisjab/herdcomp/fieldmap"
	_ "modernc.org/sqlite"
)

type SQLiteStorageConfig struct {
	Path string `yaml:"path"`

	// Bootstrap creates the animals and events tables when missing.
	Bootstrap bool `yaml:"bootstrap"`
}

func NewSQLiteStorage(cfg SQLiteStorageConfig, opts ...Option) (*Storage, error) {
	dsn := cfg.Path
	if strings.Contains(dsn, "?") {
		dsn += "&_pragma=busy_timeout(5000)"
	} else {
		dsn += "?_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	s := newStorage(db, "sqlite", PlaceholderQuestion, opts...)

	if cfg.Bootstrap {
		if err := setupSQLiteTables(context.Background(), db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return s, nil
}

func sqliteType(t fieldmap.Type) string {
	switch t {
	case fieldmap.TypeNumber:
		return "REAL"
	case fieldmap.TypeBoolean:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// setupSQLiteTables creates an animals table with one column per mapped
// item, the view the queries read, and the events table.
func setupSQLiteTables(ctx context.Context, db *sqlx.DB) error {
	columns := []string{"id TEXT PRIMARY KEY", "tenant_id TEXT NOT NULL"}
	seen := make(map[string]bool)

	for _, e := range fieldmap.Entries() {
		if seen[e.Column] {
			continue
		}
		seen[e.Column] = true
		columns = append(columns, e.Column+" "+sqliteType(e.Type))
	}

	statements := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS animals (%s)", strings.Join(columns, ", ")),
		"CREATE VIEW IF NOT EXISTS " + animalsView + " AS SELECT * FROM animals",
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			animal_id TEXT,
			event_date TEXT NOT NULL,
			event_type TEXT NOT NULL,
			details TEXT
		)`,
		"CREATE INDEX IF NOT EXISTS events_tenant_date ON events (tenant_id, event_date)",
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
