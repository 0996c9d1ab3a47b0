package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
	infradb "NeighborhoodMap-App/internal/infrastructure/database"
)

type PostgresNameColorsRepository struct {
	client *infradb.PostgreSQLClient
}

func NewPostgresNameColorsRepository(client *infradb.PostgreSQLClient) repository.NameColorsRepository {
	return &PostgresNameColorsRepository{
		client: client,
	}
}

func (r *PostgresNameColorsRepository) Get(ctx context.Context, name string) (string, error) {
	var color string
	err := r.client.DB.QueryRowContext(ctx, `SELECT color FROM neighborhood_colors WHERE name = $1`, name).Scan(&color)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("地域名の色の取得失敗: %w", err)
	}
	return color, nil
}

// GetOrCreate 挿入が競合した場合は何もせず、保存済みの色を読み直す
func (r *PostgresNameColorsRepository) GetOrCreate(ctx context.Context, name, candidate string) (string, error) {
	_, err := r.client.DB.ExecContext(ctx,
		`INSERT INTO neighborhood_colors (name, color) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("地域名の色の保存失敗: %w", err)
	}

	color, err := r.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return color, nil
}

func (r *PostgresNameColorsRepository) List(ctx context.Context) ([]model.NameColor, error) {
	rows, err := r.client.DB.QueryContext(ctx, `SELECT name, color FROM neighborhood_colors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("地域名の色一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	colors := make([]model.NameColor, 0)
	for rows.Next() {
		var nc model.NameColor
		if err := rows.Scan(&nc.Name, &nc.Color); err != nil {
			return nil, fmt.Errorf("地域名の色の読み取り失敗: %w", err)
		}
		colors = append(colors, nc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("地域名の色の読み取り失敗: %w", err)
	}
	return colors, nil
}
