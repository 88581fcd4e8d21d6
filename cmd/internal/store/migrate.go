package store

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"relay/cmd/internal/store/migrations"
)

// RunMigrations applies the embedded schema migrations to the database at
// databaseURL. It opens its own short-lived database/sql connection; the
// serialized Store connection is not involved.
func RunMigrations(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return storageErr("migrate", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return storageErr("migrate", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return storageErr("migrate", err)
	}
	return nil
}
