package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
)

type memoryLocationRow struct {
	key    uuid.UUID
	record model.LocationRecord
}

// MemoryLocationsRepository プロセス内にレコードを保持する保存先（開発・テスト用）
type MemoryLocationsRepository struct {
	mu   sync.RWMutex
	rows []memoryLocationRow
}

func NewMemoryLocationsRepository(seed ...model.LocationRecord) *MemoryLocationsRepository {
	r := &MemoryLocationsRepository{}
	for i := range seed {
		r.rows = append(r.rows, memoryLocationRow{key: uuid.New(), record: seed[i].Clone()})
	}
	return r
}

var _ repository.LocationsRepository = (*MemoryLocationsRepository)(nil)

func (r *MemoryLocationsRepository) List(ctx context.Context, limit int) ([]model.LocationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.LocationRecord, 0, n)
	// 新しい順
	for i := len(r.rows) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.rows[i].record.Clone())
	}
	return out, nil
}

func (r *MemoryLocationsRepository) Append(ctx context.Context, record *model.LocationRecord) (*model.LocationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := record.Clone()
	r.rows = append(r.rows, memoryLocationRow{key: uuid.New(), record: stored})
	out := stored.Clone()
	return &out, nil
}

// Amend そのセルの最新のレコードを更新する
func (r *MemoryLocationsRepository) Amend(ctx context.Context, cellID string, names []string, updatedAt time.Time) (*model.LocationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.rows) - 1; i >= 0; i-- {
		row := &r.rows[i]
		if row.record.CellID != cellID {
			continue
		}
		row.record.Names = append([]string(nil), names...)
		row.record.Count = len(names)
		row.record.Timestamp = updatedAt.UTC()
		out := row.record.Clone()
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

// Keys 保存順の行キー（デバッグ用）
func (r *MemoryLocationsRepository) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, len(r.rows))
	for i, row := range r.rows {
		keys[i] = row.key.String()
	}
	return keys
}
