// Package database centralises sqlx connection helpers.  The default driver
// is go-sql-driver/mysql, which also works with MariaDB when configured for
// the MySQL wire protocol.
//
// Public entry points:
//
//	OpenWithOptions(ctx, driver, dsn, opts) – fine-grained control.
//	FromConfig(ctx, cfg)                    – reads the `database` subtree of
//	                                          the merged module config.
//
// All helpers Ping the database before returning so callers fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/adeptboot/internal/store"
)

// DefaultDriver is used when the config names none.
const DefaultDriver = "mysql"

// ErrNoDSN is returned by FromConfig when `database.dsn` is empty.
var ErrNoDSN = errors.New("database: dsn not configured")

// Options tunes one pool.
type Options struct {
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	Retries         int           `koanf:"retries"`
	RetryBackoff    time.Duration `koanf:"retry_backoff"`
}

// DefaultOptions: 15 max open, 5 idle, and a 30-minute connection lifetime.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    15,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		RetryBackoff:    500 * time.Millisecond,
	}
}

// OpenWithOptions opens driver/dsn, applies opts, and pings with up to
// opts.Retries retries.
func OpenWithOptions(ctx context.Context, driver, dsn string, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	for attempt := 0; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt >= opts.Retries {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryBackoff):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("database ping: %w", err)
}

// Config is the `database` subtree of the module config.
type Config struct {
	Driver  string  `koanf:"driver"`
	DSN     string  `koanf:"dsn"`
	Options Options `koanf:"pool"`
}

// FromConfig opens the pool described under `database` in cfg.
func FromConfig(ctx context.Context, cfg *store.Store) (*sqlx.DB, error) {
	dc := Config{Driver: DefaultDriver, Options: DefaultOptions()}
	if cfg != nil {
		if err := cfg.Unmarshal("database", &dc); err != nil {
			return nil, err
		}
	}
	if dc.DSN == "" {
		return nil, ErrNoDSN
	}
	return OpenWithOptions(ctx, dc.Driver, dc.DSN, dc.Options)
}
