package repository

import (
	"context"
	"errors"
	"time"

	"NeighborhoodMap-App/internal/domain/model"
)

// ErrNotFound 対象のレコードが存在しない場合のエラー
var ErrNotFound = errors.New("レコードが見つかりません")

type LocationsRepository interface {
	// List 保存済みレコードを新しい順に最大 limit 件取得（limit <= 0 は無制限）
	List(ctx context.Context, limit int) ([]model.LocationRecord, error)
	// Append 新しいレコードを追加し、保存された内容を返す
	Append(ctx context.Context, record *model.LocationRecord) (*model.LocationRecord, error)
	// Amend 既存セルのレコードの names / count / timestamp だけを更新
	Amend(ctx context.Context, cellID string, names []string, updatedAt time.Time) (*model.LocationRecord, error)
}
