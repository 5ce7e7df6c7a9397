package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// PoolSize bounds the MySQL connection pool.
type PoolSize struct {
	MaxOpen int
	MaxIdle int
}

// InitMySQL connects to MySQL and creates the snapshot schema.
func InitMySQL(dsn string, pool PoolSize) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := sql.OpenDB(connector)

	if pool.MaxOpen > 0 {
		db.SetMaxOpenConns(pool.MaxOpen)
	}
	if pool.MaxIdle > 0 {
		db.SetMaxIdleConns(pool.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := createSchemas(db, mysqlSchemas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return db, nil
}

// NewMySQLRoomRepository connects and returns a repository over MySQL.
func NewMySQLRoomRepository(dsn string, pool PoolSize) (*SQLRoomRepository, error) {
	db, err := InitMySQL(dsn, pool)
	if err != nil {
		return nil, err
	}
	return newSQLRoomRepository(db, mysqlDialect), nil
}

var mysqlSchemas = []string{
	`CREATE TABLE IF NOT EXISTS room_snapshots (
		room_id VARCHAR(64) PRIMARY KEY,
		status VARCHAR(16) NOT NULL,
		players INT NOT NULL DEFAULT 0,
		turn_number INT NOT NULL DEFAULT 0,
		state MEDIUMTEXT NOT NULL,
		updated_at BIGINT NOT NULL,
		INDEX idx_room_snapshots_updated (updated_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
