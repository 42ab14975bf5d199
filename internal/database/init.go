package database

import (
	"context"
	"fmt"

	"github.com/Oliverpt-1/Thymos/internal/config"
)

// schema bootstraps the journal tables. Idempotent: safe to run on every
// startup. Insights are append-only; updated_at exists on trades only.
const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id           UUID PRIMARY KEY,
	owner        TEXT NOT NULL,
	ticker       TEXT NOT NULL,
	entry_price  DOUBLE PRECISION NOT NULL CHECK (entry_price >= 0),
	exit_price   DOUBLE PRECISION CHECK (exit_price >= 0),
	size         DOUBLE PRECISION NOT NULL CHECK (size > 0),
	confidence   INTEGER NOT NULL CHECK (confidence BETWEEN 1 AND 5),
	setup_tag    TEXT NOT NULL DEFAULT '',
	emotion_tag  TEXT NOT NULL DEFAULT '',
	notes        TEXT NOT NULL DEFAULT '',
	trade_date   DATE NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_trades_owner_date ON trades (owner, trade_date);

CREATE TABLE IF NOT EXISTS insights (
	id           UUID PRIMARY KEY,
	owner        TEXT NOT NULL,
	insight_type TEXT NOT NULL,
	title        TEXT NOT NULL,
	content      TEXT NOT NULL,
	severity     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_insights_owner_created ON insights (owner, created_at DESC);
`

// Initialize creates a database connection pool and bootstraps the schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if _, err := db.pool.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	return db, nil
}
