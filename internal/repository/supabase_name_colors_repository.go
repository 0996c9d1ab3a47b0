package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/supabase-community/postgrest-go"
	"go.uber.org/zap"

	"NeighborhoodMap-App/internal/database"
	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
)

type SupabaseNameColorsRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseNameColorsRepository(client *database.SupabaseClient) repository.NameColorsRepository {
	return &SupabaseNameColorsRepository{
		client: client,
	}
}

func (r *SupabaseNameColorsRepository) Get(ctx context.Context, name string) (string, error) {
	data, _, err := r.client.GetClient().From(model.TableNeighborhoodColors).
		Select("name,color", "", false).
		Eq("name", name).
		Execute()
	if err != nil {
		return "", fmt.Errorf("地域名の色の取得失敗: %w", err)
	}

	var colors []model.NameColor
	if err := json.Unmarshal(data, &colors); err != nil {
		return "", fmt.Errorf("地域名の色のJSONアンマーシャル失敗: %w", err)
	}
	if len(colors) == 0 {
		return "", repository.ErrNotFound
	}
	return colors[0].Color, nil
}

// GetOrCreate name は主キーなので、挿入が競合した場合は先に保存された色を読み直す
func (r *SupabaseNameColorsRepository) GetOrCreate(ctx context.Context, name, candidate string) (string, error) {
	color, err := r.Get(ctx, name)
	if err == nil {
		return color, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	_, _, insertErr := r.client.GetClient().From(model.TableNeighborhoodColors).
		Insert(model.NameColor{Name: name, Color: candidate}, false, "", "minimal", "").
		Execute()
	if insertErr == nil {
		return candidate, nil
	}

	zap.L().Warn("⚠️ 地域名の色の保存が競合、再取得します", zap.String("name", name), zap.Error(insertErr))
	color, err = r.Get(ctx, name)
	if err != nil {
		return "", fmt.Errorf("地域名の色の保存失敗: %w", insertErr)
	}
	return color, nil
}

func (r *SupabaseNameColorsRepository) List(ctx context.Context) ([]model.NameColor, error) {
	data, _, err := r.client.GetClient().From(model.TableNeighborhoodColors).
		Select("name,color", "", false).
		Order("name", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("地域名の色一覧の取得失敗: %w", err)
	}

	var colors []model.NameColor
	if err := json.Unmarshal(data, &colors); err != nil {
		return nil, fmt.Errorf("地域名の色のJSONアンマーシャル失敗: %w", err)
	}
	return colors, nil
}
