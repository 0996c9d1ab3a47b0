package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NeighborhoodMap-App/internal/domain/model"
)

func TestAggregator_Aggregate(t *testing.T) {
	grid := DefaultGrid()
	normalizer := NewLocationNormalizer(grid).WithClock(fixedClock)
	aggregator := NewAggregator(grid)

	t.Run("空の入力は空の出力", func(t *testing.T) {
		cells := aggregator.Aggregate(nil)
		assert.NotNil(t, cells)
		assert.Empty(t, cells)
	})

	t.Run("同じセルの投稿は1つにまとまる", func(t *testing.T) {
		records := []model.LocationRecord{
			normalizer.Normalize("Mission", 37.75901, -122.41850),
			normalizer.Normalize("Mission District", 37.75899, -122.41852),
		}

		cells := aggregator.Aggregate(records)
		require.Len(t, cells, 1)
		assert.Equal(t, "37.759_-122.419", cells[0].CellID)
		assert.Equal(t, []string{"Mission", "Mission District"}, cells[0].Names)
		assert.Equal(t, 2, cells[0].Count)
	})

	t.Run("投稿順に関係なく同じセルになる", func(t *testing.T) {
		records := []model.LocationRecord{
			normalizer.Normalize("Mission District", 37.75899, -122.41852),
			normalizer.Normalize("Mission", 37.75901, -122.41850),
		}

		cells := aggregator.Aggregate(records)
		require.Len(t, cells, 1)
		assert.Equal(t, []string{"Mission District", "Mission"}, cells[0].Names)
	})

	t.Run("大文字小文字が異なる名前は別の名前", func(t *testing.T) {
		records := []model.LocationRecord{
			normalizer.Normalize("SoMa", 37.778, -122.405),
			normalizer.Normalize("Soma", 37.778, -122.405),
			normalizer.Normalize("SoMa", 37.778, -122.405),
		}

		cells := aggregator.Aggregate(records)
		require.Len(t, cells, 1)
		assert.Equal(t, []string{"SoMa", "Soma"}, cells[0].Names)
		assert.Equal(t, 2, cells[0].Count)
	})

	t.Run("countは保存値ではなく一意な名前の数", func(t *testing.T) {
		record := normalizer.Normalize("Haight", 37.770, -122.446)
		record.Count = 42

		cells := aggregator.Aggregate([]model.LocationRecord{record})
		require.Len(t, cells, 1)
		assert.Equal(t, 1, cells[0].Count)
	})

	t.Run("最新の日時を採用", func(t *testing.T) {
		older := normalizer.Normalize("Castro", 37.762, -122.435)
		newer := normalizer.Normalize("Castro", 37.762, -122.435)
		older.Timestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		newer.Timestamp = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

		cells := aggregator.Aggregate([]model.LocationRecord{older, newer, older})
		require.Len(t, cells, 1)
		assert.Equal(t, newer.Timestamp, cells[0].MostRecentTimestamp)
	})

	t.Run("セルは最初に現れた順", func(t *testing.T) {
		records := []model.LocationRecord{
			normalizer.Normalize("B", 10, 10),
			normalizer.Normalize("A", 20, 20),
			normalizer.Normalize("B2", 10, 10),
		}

		cells := aggregator.Aggregate(records)
		require.Len(t, cells, 2)
		assert.Equal(t, "10.000_10.000", cells[0].CellID)
		assert.Equal(t, "20.000_20.000", cells[1].CellID)
	})

	t.Run("座標と一致しないセルIDのレコードは除外", func(t *testing.T) {
		corrupt := model.LocationRecord{CellID: "1_1", Names: []string{"Nowhere"}, Lat: 37.0, Lng: 1.0}
		valid := normalizer.Normalize("Mission", 37.75901, -122.41850)

		assert.NotPanics(t, func() {
			cells := aggregator.Aggregate([]model.LocationRecord{corrupt})
			assert.Empty(t, cells)
		})

		cells := aggregator.Aggregate([]model.LocationRecord{corrupt, valid})
		require.Len(t, cells, 1)
		assert.Equal(t, valid.CellID, cells[0].CellID)
	})

	t.Run("構造的に不正なレコードはスキップ", func(t *testing.T) {
		records := []model.LocationRecord{
			{Names: []string{"NoID"}, Lat: 1, Lng: 1},
			{CellID: "NaN_1.000", Names: []string{"NaN"}, Lat: math.NaN(), Lng: 1},
			{CellID: "1.000_+Inf", Names: []string{"Inf"}, Lat: 1, Lng: math.Inf(1)},
			{CellID: "100.000_1.000", Names: []string{"OutOfRange"}, Lat: 100, Lng: 1},
		}

		cells := aggregator.Aggregate(records)
		assert.Empty(t, cells)
	})

	t.Run("namesが空のレコードはエラーにならない", func(t *testing.T) {
		empty := normalizer.Normalize("x", 1, 1)
		empty.Names = nil
		named := normalizer.Normalize("One", 1, 1)

		cells := aggregator.Aggregate([]model.LocationRecord{empty})
		require.Len(t, cells, 1)
		assert.Equal(t, 0, cells[0].Count)
		assert.Empty(t, cells[0].Names)

		cells = aggregator.Aggregate([]model.LocationRecord{empty, named})
		require.Len(t, cells, 1)
		assert.Equal(t, []string{"One"}, cells[0].Names)
		assert.Equal(t, 1, cells[0].Count)
	})
}

func TestAggregator_Validate(t *testing.T) {
	aggregator := NewAggregator(DefaultGrid())

	assert.ErrorIs(t, aggregator.Validate(&model.LocationRecord{}), ErrMissingCellID)
	assert.ErrorIs(t, aggregator.Validate(&model.LocationRecord{CellID: "x", Lat: math.NaN()}), ErrNonFiniteCoordinate)
	assert.ErrorIs(t, aggregator.Validate(&model.LocationRecord{CellID: "1_1", Lat: 37}), ErrCellIDMismatch)
	assert.NoError(t, aggregator.Validate(&model.LocationRecord{CellID: "37.000_0.000", Lat: 37}))
}
