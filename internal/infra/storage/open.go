package storage

import "fmt"

// Open builds the repository for driver: "memory", "sqlite" (dsn is a file
// path) or "mysql" (dsn is a go-sql-driver DSN).
func Open(driver, dsn string, pool PoolSize) (RoomRepository, error) {
	switch driver {
	case "memory":
		return NewMemoryRoomRepository(), nil
	case "sqlite":
		return NewSQLiteRoomRepository(dsn)
	case "mysql":
		return NewMySQLRoomRepository(dsn, pool)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
