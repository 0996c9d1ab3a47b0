package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"NeighborhoodMap-App/internal/domain/model"
)

// ErrInvalidCellID セルIDの形式が不正な場合のエラー
var ErrInvalidCellID = errors.New("セルIDの形式が不正です")

// Grid 座標を一定幅のグリッドにスナップする
type Grid struct {
	step     float64
	inv      float64 // 1/step が整数のときのみ 0 以外
	decimals int
}

// NewGrid 指定されたグリッド幅で Grid を作成
func NewGrid(step float64) (*Grid, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("グリッド幅は正の有限値である必要があります: %v", step)
	}

	g := &Grid{step: step, decimals: decimalsFor(step)}
	if inv := 1 / step; step < 1 && math.Abs(inv-math.Round(inv)) < 1e-9 {
		g.inv = math.Round(inv)
	}
	return g, nil
}

// DefaultGrid 既定の 0.001 度グリッド
func DefaultGrid() *Grid {
	g, _ := NewGrid(model.DefaultGridStep)
	return g
}

// Step グリッド幅を返す
func (g *Grid) Step() float64 {
	return g.step
}

// Decimals セルIDに使う小数点以下の桁数を返す
func (g *Grid) Decimals() int {
	return g.decimals
}

// Snap 座標を最も近いグリッド点に丸める
func (g *Grid) Snap(v float64) float64 {
	var s float64
	if g.inv != 0 {
		s = math.Round(v*g.inv) / g.inv
	} else {
		s = math.Round(v/g.step) * g.step
		if parsed, err := strconv.ParseFloat(strconv.FormatFloat(s, 'f', g.decimals, 64), 64); err == nil {
			s = parsed
		}
	}
	if s == 0 {
		// -0 を +0 に揃える
		s = 0
	}
	return s
}

// CellID 生の座標からセルIDを導出する
func (g *Grid) CellID(lat, lng float64) string {
	return g.formatCellID(g.Snap(lat), g.Snap(lng))
}

func (g *Grid) formatCellID(lat, lng float64) string {
	return g.formatCoordinate(lat) + model.CellIDSeparator + g.formatCoordinate(lng)
}

func (g *Grid) formatCoordinate(v float64) string {
	s := strconv.FormatFloat(v, 'f', g.decimals, 64)
	if strings.Trim(s, "-0.") == "" {
		return strings.TrimPrefix(s, "-")
	}
	return s
}

// ParseCellID セルIDから中心座標を取り出す
func (g *Grid) ParseCellID(cellID string) (float64, float64, error) {
	parts := strings.Split(cellID, model.CellIDSeparator)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCellID, cellID)
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCellID, cellID)
	}
	lng, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCellID, cellID)
	}
	return lat, lng, nil
}

// CanonicalCellID 旧形式のセルID（"37.75_-122.4" など）を正規形式に揃える
// 数値として解釈できないIDやグリッド上に無い座標のIDはそのまま返す
func (g *Grid) CanonicalCellID(cellID string) string {
	lat, lng, err := g.ParseCellID(cellID)
	if err != nil {
		return cellID
	}
	if !g.OnGrid(lat) || !g.OnGrid(lng) {
		return cellID
	}
	return g.formatCellID(g.Snap(lat), g.Snap(lng))
}

// OnGrid 値がすでにグリッド点上にあるか
func (g *Grid) OnGrid(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return math.Abs(g.Snap(v)-v) <= g.step*1e-6
}

// Consistent レコードのセルIDが自身のスナップ座標と一致するか確認
func (g *Grid) Consistent(record *model.LocationRecord) bool {
	return record.CellID == g.CellID(record.Lat, record.Lng)
}

func decimalsFor(step float64) int {
	for d := 0; d <= 12; d++ {
		scaled := step * math.Pow10(d)
		if math.Abs(scaled-math.Round(scaled)) < 1e-9 {
			return d
		}
	}
	return 12
}

// LocationNormalizer 投稿を正規化された LocationRecord に変換する
type LocationNormalizer struct {
	grid *Grid
	now  func() time.Time
}

// NewLocationNormalizer 新しい LocationNormalizer を作成
func NewLocationNormalizer(grid *Grid) *LocationNormalizer {
	return &LocationNormalizer{
		grid: grid,
		now:  time.Now,
	}
}

// WithClock 時刻の取得元を差し替える（テスト用）
func (n *LocationNormalizer) WithClock(now func() time.Time) *LocationNormalizer {
	n.now = now
	return n
}

// Grid 使用しているグリッドを返す
func (n *LocationNormalizer) Grid() *Grid {
	return n.grid
}

// Normalize 地域名と座標から新しいレコードを作成する
// 名前の空チェックと座標の範囲チェックは呼び出し側の責務
func (n *LocationNormalizer) Normalize(name string, lat, lng float64) model.LocationRecord {
	snappedLat := n.grid.Snap(lat)
	snappedLng := n.grid.Snap(lng)

	return model.LocationRecord{
		CellID:    n.grid.formatCellID(snappedLat, snappedLng),
		Names:     []string{name},
		Lat:       snappedLat,
		Lng:       snappedLng,
		ExactLat:  lat,
		ExactLng:  lng,
		Timestamp: n.now().UTC(),
		Count:     1,
	}
}
