package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cplounge/ranksync/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

const DuplicateEntry = 1062

func New(cfg config.Database) (*sqlx.DB, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time load location failed: %w", err)
	}
	conf := mysql.NewConfig()
	conf.Net = cfg.Net
	conf.Addr = cfg.Server
	conf.User = cfg.User
	conf.Passwd = cfg.Password
	conf.DBName = cfg.DBName
	conf.Timeout = cfg.Timeout
	conf.Loc = location
	conf.ParseTime = true

	dbConn, err := sqlx.Connect("mysql", conf.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("db connection failed: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConnections)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConnections)

	if err := dbConn.Ping(); err != nil {
		return nil, err
	}

	return dbConn, nil
}

// EnsureSchema creates the per-platform identity tables when they do
// not exist yet. One table per platform, analogous shape.
func EnsureSchema(ctx context.Context, dbConn *sqlx.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS %s (
		user_id BIGINT PRIMARY KEY,
		handle VARCHAR(64) NOT NULL UNIQUE,
		tier VARCHAR(64) NOT NULL DEFAULT 'Unknown',
		rating INT NOT NULL DEFAULT 0,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		last_checked TIMESTAMP NULL DEFAULT NULL
	);
	`

	for _, table := range []string{"codeforces_identities", "codechef_identities"} {
		if _, err := dbConn.ExecContext(ctx, fmt.Sprintf(schema, table)); err != nil {
			return fmt.Errorf("ensure table %s failed: %w", table, err)
		}
	}

	return nil
}
