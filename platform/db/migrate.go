package db

import (
	"context"
	"fmt"

	"leadchat_backend/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies all pending goose migrations from the given directory.
// It is safe to call on every startup; applied migrations are skipped.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig, dir string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	goose.SetTableName("goose_db_version")

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
