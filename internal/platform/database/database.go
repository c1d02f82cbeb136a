package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"llm-session-relay/internal/config"
)

// Open connects to the configured gorm backend, tunes the pool and pings it.
func Open(ctx context.Context, backend, dsn string) (*gorm.DB, error) {
	dialector, err := dialectorFor(backend, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %w", backend, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get %s sql db failed: %w", backend, err)
	}

	if backend == config.StorageSQLite {
		// SQLite allows one writer; an in-memory database also exists per connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
		sqlDB.SetConnMaxIdleTime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s failed: %w", backend, err)
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(backend, dsn string) (gorm.Dialector, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty dsn for %s backend", backend)
	}
	switch backend {
	case config.StorageSQLite:
		return sqlite.Open(dsn), nil
	case config.StorageMySQL:
		return mysql.Open(dsn), nil
	case config.StoragePostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database backend %q", backend)
	}
}
