package postgres

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its settings in package globals
var gooseMu sync.Mutex

// Migrate applies pending migrations for the prefixed schema. The prefix
// reaches the SQL through goose's ENVSUB as ${TABLE_PREFIX}.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, prefix string, logger *slog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := os.Setenv("TABLE_PREFIX", prefix); err != nil {
		return fmt.Errorf("set table prefix: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetTableName(tables.GooseVersion)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	// goose needs database/sql; closing this handle leaves the pool open
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	before, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	after, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	logger.Info("database schema ready",
		"table_prefix", prefix,
		"version_before", before,
		"version", after,
	)
	return nil
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
	os.Exit(1)
}
