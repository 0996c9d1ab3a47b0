package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
)

func newRecord(cellID, name string, ts time.Time) model.LocationRecord {
	return model.LocationRecord{
		CellID:    cellID,
		Names:     []string{name},
		Timestamp: ts,
		Count:     1,
	}
}

func TestMemoryLocationsRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("新しい順に上限件数まで返す", func(t *testing.T) {
		repo := NewMemoryLocationsRepository(
			newRecord("a", "A", base),
			newRecord("b", "B", base.Add(time.Minute)),
		)
		_, err := repo.Append(ctx, &model.LocationRecord{CellID: "c", Names: []string{"C"}, Count: 1})
		require.NoError(t, err)

		all, err := repo.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "c", all[0].CellID)
		assert.Equal(t, "a", all[2].CellID)

		limited, err := repo.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, "c", limited[0].CellID)
		assert.Equal(t, "b", limited[1].CellID)
	})

	t.Run("返されたレコードを変更しても保存内容は変わらない", func(t *testing.T) {
		repo := NewMemoryLocationsRepository()
		stored, err := repo.Append(ctx, &model.LocationRecord{CellID: "a", Names: []string{"A"}, Count: 1})
		require.NoError(t, err)
		stored.Names[0] = "changed"

		all, err := repo.List(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, all[0].Names)
	})

	t.Run("Amend は最新のレコードだけを更新する", func(t *testing.T) {
		repo := NewMemoryLocationsRepository(
			newRecord("a", "A", base),
			newRecord("a", "B", base.Add(time.Minute)),
		)
		updatedAt := base.Add(time.Hour)

		amended, err := repo.Amend(ctx, "a", []string{"B", "C"}, updatedAt)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C"}, amended.Names)
		assert.Equal(t, 2, amended.Count)
		assert.Equal(t, updatedAt, amended.Timestamp)

		all, err := repo.List(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C"}, all[0].Names)
		assert.Equal(t, []string{"A"}, all[1].Names)
	})

	t.Run("存在しないセルの Amend は ErrNotFound", func(t *testing.T) {
		repo := NewMemoryLocationsRepository()
		_, err := repo.Amend(ctx, "missing", []string{"A"}, base)
		assert.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("キャンセル済みのコンテキストでは保存しない", func(t *testing.T) {
		repo := NewMemoryLocationsRepository()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := repo.Append(cancelled, &model.LocationRecord{CellID: "a"})
		assert.ErrorIs(t, err, context.Canceled)
		all, _ := repo.List(ctx, 0)
		assert.Empty(t, all)
	})

	t.Run("行キーは一意", func(t *testing.T) {
		repo := NewMemoryLocationsRepository(newRecord("a", "A", base), newRecord("a", "A", base))
		keys := repo.Keys()
		require.Len(t, keys, 2)
		assert.NotEqual(t, keys[0], keys[1])
	})
}

func TestMemoryNameColorsRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("最初に保存された色が残る", func(t *testing.T) {
		repo := NewMemoryNameColorsRepository()

		_, err := repo.Get(ctx, "mission")
		assert.ErrorIs(t, err, repository.ErrNotFound)

		first, err := repo.GetOrCreate(ctx, "mission", "hsl(10, 70%, 60%)")
		require.NoError(t, err)
		second, err := repo.GetOrCreate(ctx, "mission", "hsl(20, 70%, 60%)")
		require.NoError(t, err)

		assert.Equal(t, "hsl(10, 70%, 60%)", first)
		assert.Equal(t, first, second)

		got, err := repo.Get(ctx, "mission")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	})

	t.Run("同時に割り当てても1色に収束する", func(t *testing.T) {
		repo := NewMemoryNameColorsRepository()

		var wg sync.WaitGroup
		results := make([]string, 20)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				color, err := repo.GetOrCreate(ctx, "castro", fmt.Sprintf("hsl(%d, 70%%, 60%%)", i))
				assert.NoError(t, err)
				results[i] = color
			}(i)
		}
		wg.Wait()

		for _, color := range results {
			assert.Equal(t, results[0], color)
		}
	})

	t.Run("一覧は名前順", func(t *testing.T) {
		repo := NewMemoryNameColorsRepository()
		_, _ = repo.GetOrCreate(ctx, "soma", "#111111")
		_, _ = repo.GetOrCreate(ctx, "castro", "#222222")
		_, _ = repo.GetOrCreate(ctx, "mission", "#333333")

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.NameColor{
			{Name: "castro", Color: "#222222"},
			{Name: "mission", Color: "#333333"},
			{Name: "soma", Color: "#111111"},
		}, list)
	})
}
