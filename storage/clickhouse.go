package storage

import (
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
)

type ClickHouseStorageConfig struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// NewClickHouseStorage reads from a ClickHouse replica of the animals view.
// Report procedures are not available there.
func NewClickHouseStorage(cfg ClickHouseStorageConfig, opts ...Option) (*Storage, error) {
	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	return newStorage(sqlx.NewDb(db, "clickhouse"), "clickhouse", PlaceholderQuestion, opts...), nil
}
