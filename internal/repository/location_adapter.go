package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/service"
)

// LocationRow locations テーブルの1行（Supabase / PostgreSQL 共通）
type LocationRow struct {
	LocationID string     `json:"location_id"`
	Names      []string   `json:"names"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	ExactLat   float64    `json:"exact_lat"`
	ExactLng   float64    `json:"exact_lng"`
	Count      int        `json:"count"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// RecordToRow LocationRecord を DB 保存用の行に変換
func RecordToRow(record *model.LocationRecord) *LocationRow {
	names := record.Names
	if names == nil {
		names = []string{}
	}
	row := &LocationRow{
		LocationID: record.CellID,
		Names:      names,
		Lat:        record.Lat,
		Lng:        record.Lng,
		ExactLat:   record.ExactLat,
		ExactLng:   record.ExactLng,
		Count:      record.Count,
	}
	if !record.Timestamp.IsZero() {
		ts := record.Timestamp.UTC()
		row.CreatedAt = &ts
		row.UpdatedAt = &ts
	}
	return row
}

// ToRecord DB の行を LocationRecord に変換（旧形式のセルIDは正規化する）
func (r *LocationRow) ToRecord(grid *service.Grid) model.LocationRecord {
	record := model.LocationRecord{
		CellID:   grid.CanonicalCellID(r.LocationID),
		Names:    append([]string{}, r.Names...),
		Lat:      r.Lat,
		Lng:      r.Lng,
		ExactLat: r.ExactLat,
		ExactLng: r.ExactLng,
		Count:    r.Count,
	}
	switch {
	case r.UpdatedAt != nil:
		record.Timestamp = r.UpdatedAt.UTC()
	case r.CreatedAt != nil:
		record.Timestamp = r.CreatedAt.UTC()
	}
	return record
}

// flexFloat 数値・数値文字列のどちらでも受け付ける座標値
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			// 数値でない文字列は欠損として扱う
			return nil
		}
		f.Value, f.Valid = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value, f.Valid = v, true
	return nil
}

// LegacyLocation 過去のドラフトで保存されたレコードの全ての形
//   - ローカル保存: {id, names, lat, lng, exactLat, exactLng, date, count}
//   - Supabase: {location_id, names, lat, lng, exact_lat, exact_lng, count, created_at, updated_at}
//   - 初期版: {id: <数値>, name, lat, lng, date}
type LegacyLocation struct {
	ID            json.RawMessage `json:"id"`
	LocationID    string          `json:"location_id"`
	Name          string          `json:"name"`
	Names         []string        `json:"names"`
	Lat           flexFloat       `json:"lat"`
	Lng           flexFloat       `json:"lng"`
	ExactLat      flexFloat       `json:"exactLat"`
	ExactLng      flexFloat       `json:"exactLng"`
	ExactLatSnake flexFloat       `json:"exact_lat"`
	ExactLngSnake flexFloat       `json:"exact_lng"`
	Date          string          `json:"date"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
	Count         flexFloat       `json:"count"`
}

// ToRecord 旧形式のレコードを正規の LocationRecord に変換
// セルIDを持たない初期版のレコードは座標からセルIDを導出する
func (l *LegacyLocation) ToRecord(grid *service.Grid) model.LocationRecord {
	names := l.Names
	if names == nil && l.Name != "" {
		names = []string{l.Name}
	}
	if names == nil {
		names = []string{}
	}

	lat, lng := math.NaN(), math.NaN()
	if l.Lat.Valid {
		lat = l.Lat.Value
	}
	if l.Lng.Valid {
		lng = l.Lng.Value
	}

	record := model.LocationRecord{
		Names:     append([]string{}, names...),
		Lat:       lat,
		Lng:       lng,
		ExactLat:  firstValid(lat, l.ExactLat, l.ExactLatSnake),
		ExactLng:  firstValid(lng, l.ExactLng, l.ExactLngSnake),
		Timestamp: parseTimestamp(l.UpdatedAt, l.CreatedAt, l.Date),
		Count:     len(names),
	}
	if l.Count.Valid && l.Count.Value > 0 {
		record.Count = int(l.Count.Value)
	}

	cellID := l.LocationID
	if cellID == "" {
		cellID = legacyStringID(l.ID)
	}
	if cellID == "" {
		// 初期版: 生の座標しか持たないのでここでスナップする
		record.Lat = grid.Snap(lat)
		record.Lng = grid.Snap(lng)
		record.CellID = grid.CellID(lat, lng)
		return record
	}
	record.CellID = grid.CanonicalCellID(cellID)
	return record
}

// DecodeLegacyLocations JSON 配列を読み込み、どの形のレコードも正規化して返す
func DecodeLegacyLocations(data []byte, grid *service.Grid) ([]model.LocationRecord, error) {
	var legacy []LegacyLocation
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("地域レコードのJSONアンマーシャル失敗: %w", err)
	}

	records := make([]model.LocationRecord, 0, len(legacy))
	for i := range legacy {
		records = append(records, legacy[i].ToRecord(grid))
	}
	return records, nil
}

// legacyStringID id が文字列ならその値を返す（数値の id は初期版の連番なので無視）
func legacyStringID(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func firstValid(fallback float64, values ...flexFloat) float64 {
	for _, v := range values {
		if v.Valid {
			return v.Value
		}
	}
	return fallback
}

func parseTimestamp(values ...string) time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
