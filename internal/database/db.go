package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/openclaw/wa-gateway-go/internal/config"
)

type DB struct {
	*sqlx.DB
}

// Connect opens a pooled connection for one of the supported session store
// drivers and verifies it with a ping.
func Connect(driver, dsn string) (*DB, error) {
	switch driver {
	case config.StoreDriverSQLite, config.StoreDriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(config.DBConnMaxLifetime)

	return &DB{db}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.DBPingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}
