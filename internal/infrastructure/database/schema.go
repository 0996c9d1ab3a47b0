package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS locations (
	id BIGSERIAL PRIMARY KEY,
	location_id TEXT NOT NULL,
	names TEXT[] NOT NULL DEFAULT '{}',
	lat DOUBLE PRECISION NOT NULL,
	lng DOUBLE PRECISION NOT NULL,
	exact_lat DOUBLE PRECISION,
	exact_lng DOUBLE PRECISION,
	count INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_location_id ON locations (location_id)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_created_at ON locations (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS neighborhood_colors (
	name TEXT PRIMARY KEY,
	color TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
}

// EnsureSchema locations / neighborhood_colors テーブルが無ければ作成する
func (pc *PostgreSQLClient) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := pc.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("スキーマの作成に失敗: %w", err)
		}
	}
	return nil
}
