package repository

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
)

// Firestore エミュレータがある場合だけ実行する
func newEmulatorFirestore(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST が設定されていないためスキップ")
	}

	client, err := firestore.NewClient(context.Background(), "neighborhood-map-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFirestoreNameColorsRepository(t *testing.T) {
	ctx := context.Background()
	client := newEmulatorFirestore(t)
	repo := NewFirestoreNameColorsRepository(client)

	// 実行ごとに別の名前を使う
	name := "mission/" + uuid.NewString()

	t.Run("未登録の Get は ErrNotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, name)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("最初に保存された色が残る", func(t *testing.T) {
		first, err := repo.GetOrCreate(ctx, name, "hsl(10, 70%, 60%)")
		require.NoError(t, err)
		second, err := repo.GetOrCreate(ctx, name, "hsl(20, 70%, 60%)")
		require.NoError(t, err)

		assert.Equal(t, "hsl(10, 70%, 60%)", first)
		assert.Equal(t, first, second)

		got, err := repo.Get(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	})

	t.Run("一覧に含まれる", func(t *testing.T) {
		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, list, model.NameColor{Name: name, Color: "hsl(10, 70%, 60%)"})
	})
}
