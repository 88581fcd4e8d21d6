package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// NewDBConn opens the single Postgres connection the storage adapter owns
// and validates connectivity. All storage traffic is serialized over this
// one connection, so no pool is needed.
func NewDBConn(ctx context.Context, cfg Config) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := conn.Ping(pingCtx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	return conn, nil
}
