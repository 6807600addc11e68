package database

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
)

func Connect() (*sqlx.DB, error) {
	dsn := viper.GetString("DB_DSN")
	return sqlx.Connect("pgx", dsn)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS water_quality (
		id          BIGSERIAL PRIMARY KEY,
		timestamp   TIMESTAMPTZ NOT NULL,
		ph          DOUBLE PRECISION NOT NULL,
		turbidity   DOUBLE PRECISION NOT NULL,
		temperature DOUBLE PRECISION NOT NULL,
		tds         DOUBLE PRECISION NOT NULL,
		prediction  INTEGER NOT NULL,
		label       TEXT NOT NULL,
		confidence  DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_water_quality_timestamp ON water_quality (timestamp)`,
}

// EnsureSchema creates the reading history table and its indexes if they do
// not exist yet. Safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
