package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
)

// RedisNameColorsRepository ハッシュ neighborhood_colors に name -> color を保存する
type RedisNameColorsRepository struct {
	client *redis.Client
	key    string
}

func NewRedisNameColorsRepository(client *redis.Client) repository.NameColorsRepository {
	return &RedisNameColorsRepository{
		client: client,
		key:    model.RedisNeighborhoodColorsKey,
	}
}

func (r *RedisNameColorsRepository) Get(ctx context.Context, name string) (string, error) {
	color, err := r.client.HGet(ctx, r.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("地域名の色の取得失敗: %w", err)
	}
	return color, nil
}

// GetOrCreate HSETNX で未登録の場合だけ保存し、その後に確定した色を読む
func (r *RedisNameColorsRepository) GetOrCreate(ctx context.Context, name, candidate string) (string, error) {
	created, err := r.client.HSetNX(ctx, r.key, name, candidate).Result()
	if err != nil {
		return "", fmt.Errorf("地域名の色の保存失敗: %w", err)
	}
	if created {
		return candidate, nil
	}
	return r.Get(ctx, name)
}

func (r *RedisNameColorsRepository) List(ctx context.Context) ([]model.NameColor, error) {
	all, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("地域名の色一覧の取得失敗: %w", err)
	}

	colors := make([]model.NameColor, 0, len(all))
	for name, color := range all {
		colors = append(colors, model.NameColor{Name: name, Color: color})
	}
	sort.Slice(colors, func(i, j int) bool { return colors[i].Name < colors[j].Name })
	return colors, nil
}
