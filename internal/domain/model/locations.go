package model

import (
	"time"
)

// LatLng 緯度経度を表す基本的な型（地図のクリック・ドラッグイベントで使用）
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RawSubmission ユーザーが地図上で入力した地域名と座標
type RawSubmission struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

// LocationRecord 永続化される地域名の投稿レコード
type LocationRecord struct {
	CellID    string    `json:"id"`            // スナップ後の座標から導出されるセルID
	Names     []string  `json:"names"`         // 投稿時の地域名（1件または蓄積されたリスト）
	Lat       float64   `json:"lat"`           // スナップ後の緯度
	Lng       float64   `json:"lng"`           // スナップ後の経度
	ExactLat  float64   `json:"exactLat"`      // 元の緯度
	ExactLng  float64   `json:"exactLng"`      // 元の経度
	Timestamp time.Time `json:"date,omitzero"` // 作成・更新日時（不明なら出力しない）
	Count     int       `json:"count"`         // 地域名の数（集約時に再計算）
}

// AggregatedCell 同じセルIDを持つレコードを集約した表示単位
type AggregatedCell struct {
	CellID              string      `json:"id"`
	Names               []string    `json:"names"`
	Count               int         `json:"count"`
	Lat                 float64     `json:"lat"`
	Lng                 float64     `json:"lng"`
	MostRecentTimestamp time.Time   `json:"date,omitzero"`
	DisplayColor        string      `json:"displayColor,omitempty"`
	Shares              []NameShare `json:"shares,omitempty"`
}

// Point セルの代表座標を返す
func (c *AggregatedCell) Point() LatLng {
	return LatLng{Lat: c.Lat, Lng: c.Lng}
}

// Clone レコードのコピーを作成（namesスライスも複製）
func (r *LocationRecord) Clone() LocationRecord {
	out := *r
	out.Names = append([]string(nil), r.Names...)
	return out
}
