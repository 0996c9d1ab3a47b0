package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"NeighborhoodMap-App/internal/database"
	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
	"NeighborhoodMap-App/internal/domain/service"
)

type SupabaseLocationsRepository struct {
	client *database.SupabaseClient
	grid   *service.Grid
}

func NewSupabaseLocationsRepository(client *database.SupabaseClient, grid *service.Grid) repository.LocationsRepository {
	return &SupabaseLocationsRepository{
		client: client,
		grid:   grid,
	}
}

func (r *SupabaseLocationsRepository) List(ctx context.Context, limit int) ([]model.LocationRecord, error) {
	query := r.client.GetClient().From(model.TableLocations).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		query = query.Limit(limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("地域レコードの取得失敗: %w", err)
	}
	return r.decodeRows(data)
}

func (r *SupabaseLocationsRepository) Append(ctx context.Context, record *model.LocationRecord) (*model.LocationRecord, error) {
	data, _, err := r.client.GetClient().From(model.TableLocations).
		Insert(RecordToRow(record), false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("地域レコードの保存失敗: %w", err)
	}

	records, err := r.decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		// representation が返らない場合は送信した内容をそのまま返す
		out := record.Clone()
		return &out, nil
	}
	return &records[0], nil
}

// Amend 同じ location_id を持つ行の names / count / updated_at を更新する
func (r *SupabaseLocationsRepository) Amend(ctx context.Context, cellID string, names []string, updatedAt time.Time) (*model.LocationRecord, error) {
	patch := map[string]interface{}{
		"names":      names,
		"count":      len(names),
		"updated_at": updatedAt.UTC(),
	}

	data, _, err := r.client.GetClient().From(model.TableLocations).
		Update(patch, "representation", "").
		Eq("location_id", cellID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("地域レコードの更新失敗: %w", err)
	}

	records, err := r.decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("セル %s: %w", cellID, repository.ErrNotFound)
	}
	return &records[0], nil
}

func (r *SupabaseLocationsRepository) decodeRows(data []byte) ([]model.LocationRecord, error) {
	var rows []LocationRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("地域レコードのJSONアンマーシャル失敗: %w", err)
	}

	records := make([]model.LocationRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].ToRecord(r.grid))
	}
	return records, nil
}
