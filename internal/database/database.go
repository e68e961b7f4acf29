package database

import (
	"context"
	"fmt"
	"time"

	"campus-portal/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/sijms/go-ora/v2" // Oracle driver
	"go.uber.org/zap"
)

const driverName = "oracle"

func init() {
	// go-ora takes :name placeholders, which sqlx does not know for this driver name.
	sqlx.BindDriver(driverName, sqlx.NAMED)
}

// NewSQLXOracleDB opens and pings the audit database.
func NewSQLXOracleDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open Oracle database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping Oracle database: %w", err)
	}

	logger.Get().Info("Connected to Oracle database")
	return db, nil
}

// Ping reports whether db answers within ctx; used by the health check.
func Ping(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Get().Warn("Database ping failed", zap.Error(err))
		return err
	}
	return nil
}
