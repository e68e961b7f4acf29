package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"campus-portal/internal/logger"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationsTable = "PORTAL_SCHEMA_MIGRATIONS"

// Migrations returns the embedded migration files as a golang-migrate source.
func Migrations() (source.Driver, error) {
	return iofs.New(migrationFS, "migrations")
}

// RunMigrations applies every embedded up migration not yet recorded, in
// version order. Oracle runs one statement per Exec, so each file holds one.
func RunMigrations(ctx context.Context, db *sqlx.DB) (int, error) {
	src, err := Migrations()
	if err != nil {
		return 0, fmt.Errorf("could not open migrations: %w", err)
	}
	defer src.Close()

	if err := ensureMigrationsTable(ctx, db); err != nil {
		return 0, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return 0, err
	}

	log := logger.Get()
	count := 0
	version, err := src.First()
	for err == nil {
		if !applied[version] {
			if err := applyUp(ctx, db, src, version); err != nil {
				return count, err
			}
			count++
		} else {
			log.Debug("Migration already applied", zap.Uint("version", version))
		}
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return count, fmt.Errorf("could not list migrations: %w", err)
	}

	log.Info("Migrations completed", zap.Int("applied", count))
	return count, nil
}

func applyUp(ctx context.Context, db *sqlx.DB, src source.Driver, version uint) error {
	r, identifier, err := src.ReadUp(version)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read migration %d: %w", version, err)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("could not read migration %d: %w", version, err)
	}
	stmt := strings.TrimSuffix(strings.TrimSpace(string(content)), ";")
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("could not execute migration %d_%s: %w", version, identifier, err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO "+migrationsTable+" (VERSION, NAME) VALUES (:1, :2)", version, identifier); err != nil {
		return fmt.Errorf("could not record migration %d: %w", version, err)
	}
	logger.Get().Info("Executed migration", zap.Uint("version", version), zap.String("name", identifier))
	return nil
}

func ensureMigrationsTable(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM USER_TABLES WHERE TABLE_NAME = '"+migrationsTable+"'"); err != nil {
		return fmt.Errorf("could not inspect schema: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, "CREATE TABLE "+migrationsTable+
		" (VERSION NUMBER(19) PRIMARY KEY, NAME VARCHAR2(255) NOT NULL, APPLIED_AT TIMESTAMP DEFAULT SYSTIMESTAMP NOT NULL)")
	if err != nil {
		return fmt.Errorf("could not create migrations table: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sqlx.DB) (map[uint]bool, error) {
	var versions []int64
	if err := db.SelectContext(ctx, &versions, "SELECT VERSION FROM "+migrationsTable); err != nil {
		return nil, fmt.Errorf("could not read applied migrations: %w", err)
	}
	out := make(map[uint]bool, len(versions))
	for _, v := range versions {
		out[uint(v)] = true
	}
	return out, nil
}
