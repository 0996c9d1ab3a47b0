package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"NeighborhoodMap-App/internal/config"
)

// RedisClient Redisクライアントのラッパー
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient 新しいRedisクライアントを作成し、接続を確認する
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redisへの接続に失敗: %w", err)
	}

	zap.L().Info("✅ Redisに接続しました", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &RedisClient{client: client}, nil
}

// GetClient Redisクライアントを取得
func (rc *RedisClient) GetClient() *redis.Client {
	return rc.client
}

// Close 接続を閉じる
func (rc *RedisClient) Close() error {
	return rc.client.Close()
}
