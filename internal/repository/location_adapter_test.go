package repository

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/service"
)

func TestDecodeLegacyLocations(t *testing.T) {
	grid := service.DefaultGrid()

	t.Run("ローカル保存形式", func(t *testing.T) {
		data := []byte(`[{"id":"37.759_-122.419","names":["Mission"],"lat":37.759,"lng":-122.419,
			"exactLat":37.75901,"exactLng":-122.41852,"date":"2024-05-01T12:00:00.000Z","count":1}]`)

		records, err := DecodeLegacyLocations(data, grid)
		require.NoError(t, err)
		require.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, "37.759_-122.419", r.CellID)
		assert.Equal(t, []string{"Mission"}, r.Names)
		assert.Equal(t, 37.759, r.Lat)
		assert.Equal(t, -122.419, r.Lng)
		assert.Equal(t, 37.75901, r.ExactLat)
		assert.Equal(t, -122.41852, r.ExactLng)
		assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), r.Timestamp)
		assert.Equal(t, 1, r.Count)
	})

	t.Run("旧形式のセルIDは正規化される", func(t *testing.T) {
		data := []byte(`[{"id":"37.75_-122.4","names":["Dolores"],"lat":37.75,"lng":-122.4,"date":"2024-05-01T12:00:00Z"}]`)

		records, err := DecodeLegacyLocations(data, grid)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "37.750_-122.400", records[0].CellID)
		// exact が無ければスナップ座標を使う
		assert.Equal(t, 37.75, records[0].ExactLat)
		assert.True(t, grid.Consistent(&records[0]))
	})

	t.Run("Supabase形式（文字列の座標と updated_at）", func(t *testing.T) {
		data := []byte(`[{"location_id":"37.762_-122.435","names":["Castro","Eureka Valley"],
			"lat":"37.762","lng":"-122.435","exact_lat":37.7621,"exact_lng":-122.4352,"count":2,
			"created_at":"2024-05-01T10:00:00+00:00","updated_at":"2024-05-02T09:30:00.123456+00:00"}]`)

		records, err := DecodeLegacyLocations(data, grid)
		require.NoError(t, err)
		require.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, "37.762_-122.435", r.CellID)
		assert.Equal(t, []string{"Castro", "Eureka Valley"}, r.Names)
		assert.Equal(t, 37.762, r.Lat)
		assert.Equal(t, 37.7621, r.ExactLat)
		assert.Equal(t, 2, r.Count)
		assert.Equal(t, time.Date(2024, 5, 2, 9, 30, 0, 123456000, time.UTC), r.Timestamp)
	})

	t.Run("初期版は座標からセルIDを導出する", func(t *testing.T) {
		data := []byte(`[{"id":1714564800000,"name":"Mission","lat":37.75901,"lng":-122.41852,"date":"2024-05-01T12:00:00.000Z"}]`)

		records, err := DecodeLegacyLocations(data, grid)
		require.NoError(t, err)
		require.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, "37.759_-122.419", r.CellID)
		assert.Equal(t, []string{"Mission"}, r.Names)
		assert.Equal(t, 37.759, r.Lat)
		assert.Equal(t, -122.419, r.Lng)
		assert.Equal(t, 37.75901, r.ExactLat)
		assert.Equal(t, 1, r.Count)
	})

	t.Run("壊れたレコードは変換されるが集約で除外される", func(t *testing.T) {
		data := []byte(`[
			{"id":"abc","names":["X"],"lat":"north","lng":1},
			{"id":"37.759_-122.419","names":["Mission"],"lat":37.759,"lng":-122.419,"date":"2024-05-01T12:00:00Z"}
		]`)

		records, err := DecodeLegacyLocations(data, grid)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "abc", records[0].CellID)
		assert.True(t, math.IsNaN(records[0].Lat))

		cells := service.NewAggregator(grid).Aggregate(records)
		require.Len(t, cells, 1)
		assert.Equal(t, "37.759_-122.419", cells[0].CellID)
	})

	t.Run("グリッド上に無いセルIDは丸めずに集約で除外される", func(t *testing.T) {
		data := []byte(`[{"location_id":"37.7594_-122.4186","names":["Mission"],"lat":37.759,"lng":-122.419,
			"created_at":"2024-05-01T10:00:00+00:00"}]`)

		records, err := DecodeLegacyLocations(data, grid)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "37.7594_-122.4186", records[0].CellID)

		assert.Empty(t, service.NewAggregator(grid).Aggregate(records))
	})

	t.Run("空配列", func(t *testing.T) {
		records, err := DecodeLegacyLocations([]byte(`[]`), grid)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("JSONでなければエラー", func(t *testing.T) {
		_, err := DecodeLegacyLocations([]byte(`{"id":`), grid)
		assert.Error(t, err)
	})
}

func TestLocationRow(t *testing.T) {
	grid := service.DefaultGrid()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	record := model.LocationRecord{
		CellID:    "37.759_-122.419",
		Names:     []string{"Mission"},
		Lat:       37.759,
		Lng:       -122.419,
		ExactLat:  37.75901,
		ExactLng:  -122.41852,
		Timestamp: ts,
		Count:     1,
	}

	t.Run("レコードと行の相互変換", func(t *testing.T) {
		row := RecordToRow(&record)
		assert.Equal(t, "37.759_-122.419", row.LocationID)
		require.NotNil(t, row.CreatedAt)
		assert.Equal(t, ts, *row.CreatedAt)

		assert.Equal(t, record, row.ToRecord(grid))
	})

	t.Run("names が nil なら空配列で保存する", func(t *testing.T) {
		row := RecordToRow(&model.LocationRecord{CellID: "0.000_0.000"})
		assert.NotNil(t, row.Names)
		assert.Nil(t, row.CreatedAt)
	})

	t.Run("updated_at が created_at より優先される", func(t *testing.T) {
		created := ts
		updated := ts.Add(time.Hour)
		row := LocationRow{LocationID: "37.75_-122.4", CreatedAt: &created, UpdatedAt: &updated}

		got := row.ToRecord(grid)
		assert.Equal(t, "37.750_-122.400", got.CellID)
		assert.Equal(t, updated, got.Timestamp)
	})

	t.Run("グリッド上に無い location_id はそのまま残し集約で除外される", func(t *testing.T) {
		row := LocationRow{LocationID: "37.7594_-122.4186", Names: []string{"Mission"}, Lat: 37.759, Lng: -122.419}

		got := row.ToRecord(grid)
		assert.Equal(t, "37.7594_-122.4186", got.CellID)
		assert.Empty(t, service.NewAggregator(grid).Aggregate([]model.LocationRecord{got}))
	})
}
