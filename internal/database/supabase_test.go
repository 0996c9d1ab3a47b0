package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NeighborhoodMap-App/internal/config"
)

func TestNewSupabaseClient(t *testing.T) {
	t.Run("URL とキーがあれば作成できる", func(t *testing.T) {
		client, err := NewSupabaseClient(config.SupabaseConfig{URL: "https://abc.supabase.co", AnonKey: "anon"})
		require.NoError(t, err)
		assert.NotNil(t, client.GetClient())
		assert.NoError(t, client.HealthCheck())
	})

	t.Run("URL が無ければエラー", func(t *testing.T) {
		_, err := NewSupabaseClient(config.SupabaseConfig{AnonKey: "anon"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SUPABASE_URL")
	})

	t.Run("キーが無ければエラー", func(t *testing.T) {
		_, err := NewSupabaseClient(config.SupabaseConfig{URL: "https://abc.supabase.co"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SUPABASE_ANON_KEY")
	})

	t.Run("未初期化のヘルスチェックはエラー", func(t *testing.T) {
		assert.Error(t, (&SupabaseClient{}).HealthCheck())
	})
}
