package model

// 座標スナップに関する定数
const (
	// DefaultGridStep 既定のグリッド幅（1/1000度、赤道で約111m）
	DefaultGridStep = 0.001

	// CellIDSeparator セルIDの緯度と経度の区切り文字
	CellIDSeparator = "_"
)

// 色に関する定数
const (
	// DefaultColor 色が不明・空のときに使うニュートラルな色
	DefaultColor = "#cccccc"

	// GeneratedSaturation 新しい色を生成するときの彩度（%）
	GeneratedSaturation = 70

	// GeneratedLightness 新しい色を生成するときの明度（%）
	GeneratedLightness = 60

	// BorderDarkenPercent 枠線の色を塗りつぶし色から暗くする割合（%）
	BorderDarkenPercent = 20
)

// 永続化先のテーブル・コレクション名
const (
	TableLocations          = "locations"
	TableNeighborhoodColors = "neighborhood_colors"

	CollectionNeighborhoodColors = "neighborhoodColors"

	RedisNeighborhoodColorsKey = "neighborhood_colors"
)

// DefaultLoadLimit 一度に読み込むレコードの上限
const DefaultLoadLimit = 2000

// バックエンド種別
const (
	BackendMemory    = "memory"
	BackendSupabase  = "supabase"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendRedis     = "redis"
)

// GetLocationBackends 地域レコードの保存先として選択できるバックエンド一覧
func GetLocationBackends() []string {
	return []string{
		BackendMemory,
		BackendSupabase,
		BackendPostgres,
	}
}

// GetColorBackends 地域名の色の保存先として選択できるバックエンド一覧
func GetColorBackends() []string {
	return []string{
		BackendMemory,
		BackendSupabase,
		BackendPostgres,
		BackendFirestore,
		BackendRedis,
	}
}
