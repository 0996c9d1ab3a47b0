package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
	"NeighborhoodMap-App/internal/domain/service"
	infradb "NeighborhoodMap-App/internal/infrastructure/database"
)

const locationColumns = `location_id, names, lat, lng, exact_lat, exact_lng, count, created_at, updated_at`

type PostgresLocationsRepository struct {
	client *infradb.PostgreSQLClient
	grid   *service.Grid
}

func NewPostgresLocationsRepository(client *infradb.PostgreSQLClient, grid *service.Grid) repository.LocationsRepository {
	return &PostgresLocationsRepository{
		client: client,
		grid:   grid,
	}
}

// locationScanner *sql.Row と *sql.Rows の共通部分
type locationScanner interface {
	Scan(dest ...interface{}) error
}

func scanLocationRow(s locationScanner) (*LocationRow, error) {
	var (
		row       LocationRow
		names     pq.StringArray
		exactLat  sql.NullFloat64
		exactLng  sql.NullFloat64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := s.Scan(&row.LocationID, &names, &row.Lat, &row.Lng, &exactLat, &exactLng, &row.Count, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	row.Names = []string(names)
	row.ExactLat = row.Lat
	if exactLat.Valid {
		row.ExactLat = exactLat.Float64
	}
	row.ExactLng = row.Lng
	if exactLng.Valid {
		row.ExactLng = exactLng.Float64
	}
	row.CreatedAt = &createdAt
	row.UpdatedAt = &updatedAt
	return &row, nil
}

func (r *PostgresLocationsRepository) List(ctx context.Context, limit int) ([]model.LocationRecord, error) {
	query := `SELECT ` + locationColumns + ` FROM locations ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("地域レコードの取得失敗: %w", err)
	}
	defer rows.Close()

	records := make([]model.LocationRecord, 0)
	for rows.Next() {
		row, err := scanLocationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("地域レコードの読み取り失敗: %w", err)
		}
		records = append(records, row.ToRecord(r.grid))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("地域レコードの読み取り失敗: %w", err)
	}
	return records, nil
}

func (r *PostgresLocationsRepository) Append(ctx context.Context, record *model.LocationRecord) (*model.LocationRecord, error) {
	query := `INSERT INTO locations (location_id, names, lat, lng, exact_lat, exact_lng, count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`

	ts := record.Timestamp.UTC()
	if record.Timestamp.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := r.client.DB.ExecContext(ctx, query,
		record.CellID, pq.Array(record.Names), record.Lat, record.Lng,
		record.ExactLat, record.ExactLng, record.Count, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("地域レコードの保存失敗: %w", err)
	}

	out := record.Clone()
	out.Timestamp = ts
	return &out, nil
}

// Amend そのセルの最新の行だけを更新する
func (r *PostgresLocationsRepository) Amend(ctx context.Context, cellID string, names []string, updatedAt time.Time) (*model.LocationRecord, error) {
	query := `UPDATE locations SET names = $2, count = $3, updated_at = $4
		WHERE id = (SELECT id FROM locations WHERE location_id = $1 ORDER BY created_at DESC LIMIT 1)
		RETURNING ` + locationColumns

	row, err := scanLocationRow(r.client.DB.QueryRowContext(ctx, query,
		cellID, pq.Array(names), len(names), updatedAt.UTC(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("セル %s: %w", cellID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("地域レコードの更新失敗: %w", err)
	}

	record := row.ToRecord(r.grid)
	return &record, nil
}
