package service

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"NeighborhoodMap-App/internal/domain/model"
)

// レコード検証エラー
var (
	ErrMissingCellID       = errors.New("セルIDがありません")
	ErrNonFiniteCoordinate = errors.New("座標が有限値ではありません")
	ErrCellIDMismatch      = errors.New("セルIDと座標が一致しません")
)

// Aggregator 同じセルのレコードを1つの表示単位にまとめる
type Aggregator struct {
	grid *Grid
}

// NewAggregator 新しい Aggregator を作成
func NewAggregator(grid *Grid) *Aggregator {
	return &Aggregator{grid: grid}
}

// Validate レコードが集約に使えるか検証する
func (a *Aggregator) Validate(record *model.LocationRecord) error {
	if record.CellID == "" {
		return ErrMissingCellID
	}
	if !isFinite(record.Lat) || !isFinite(record.Lng) {
		return fmt.Errorf("%w: %s", ErrNonFiniteCoordinate, record.CellID)
	}
	if !a.grid.Consistent(record) {
		return fmt.Errorf("%w: id=%s 期待値=%s", ErrCellIDMismatch, record.CellID, a.grid.CellID(record.Lat, record.Lng))
	}
	return nil
}

// Aggregate レコードをセルIDごとにグループ化する
// 出力順は各セルIDが最初に現れた順
func (a *Aggregator) Aggregate(records []model.LocationRecord) []model.AggregatedCell {
	if len(records) == 0 {
		return []model.AggregatedCell{}
	}

	order := make([]string, 0)
	grouped := make(map[string]*model.AggregatedCell)
	seen := make(map[string]map[string]struct{})
	skipped := 0

	for i := range records {
		record := &records[i]
		if err := a.Validate(record); err != nil {
			skipped++
			zap.L().Warn("⚠️ 不正なレコードを集約から除外", zap.Int("index", i), zap.Error(err))
			continue
		}

		cell, ok := grouped[record.CellID]
		if !ok {
			cell = &model.AggregatedCell{
				CellID:              record.CellID,
				Names:               []string{},
				Lat:                 record.Lat,
				Lng:                 record.Lng,
				MostRecentTimestamp: record.Timestamp,
			}
			grouped[record.CellID] = cell
			seen[record.CellID] = make(map[string]struct{})
			order = append(order, record.CellID)
		}

		// 大文字小文字を区別して重複排除（最初に現れた順を維持）
		names := seen[record.CellID]
		for _, name := range record.Names {
			if name == "" {
				continue
			}
			if _, dup := names[name]; dup {
				continue
			}
			names[name] = struct{}{}
			cell.Names = append(cell.Names, name)
		}

		if record.Timestamp.After(cell.MostRecentTimestamp) {
			cell.MostRecentTimestamp = record.Timestamp
		}
	}

	cells := make([]model.AggregatedCell, 0, len(order))
	for _, id := range order {
		cell := grouped[id]
		cell.Count = len(cell.Names)
		if !validLatitude(cell.Lat) || !validLongitude(cell.Lng) {
			zap.L().Warn("⚠️ 範囲外のセルを除外", zap.String("cell_id", id), zap.Float64("lat", cell.Lat), zap.Float64("lng", cell.Lng))
			continue
		}
		cells = append(cells, *cell)
	}

	if skipped > 0 {
		zap.L().Info("集約完了", zap.Int("records", len(records)), zap.Int("skipped", skipped), zap.Int("cells", len(cells)))
	}

	return cells
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validLatitude(v float64) bool {
	return isFinite(v) && v >= -90 && v <= 90
}

func validLongitude(v float64) bool {
	return isFinite(v) && v >= -180 && v <= 180
}
