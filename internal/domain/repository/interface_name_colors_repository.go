package repository

import (
	"context"

	"NeighborhoodMap-App/internal/domain/model"
)

type NameColorsRepository interface {
	// Get 正規化済みの名前に割り当てられた色を取得（未割り当ては ErrNotFound）
	Get(ctx context.Context, name string) (string, error)
	// GetOrCreate 未割り当てなら candidate を保存し、実際に割り当てられている色を返す
	GetOrCreate(ctx context.Context, name, candidate string) (string, error)
	// List 割り当て済みの全ての名前と色を名前順に取得
	List(ctx context.Context) ([]model.NameColor, error)
}
