package model

import (
	"github.com/paulmach/orb"
)

// RenderInstruction 地図に描画するセル1件分の指示
type RenderInstruction struct {
	CellID       string    `json:"cellId"`
	Bounds       orb.Bound `json:"-"`
	FillColor    string    `json:"fillColor"`
	BorderColor  string    `json:"borderColor"`
	Count        int       `json:"count"`
	PopupContent string    `json:"popup"`
}

// MapSurface 描画指示を受け取る地図（外部コンポーネント）
type MapSurface interface {
	Clear()
	Draw(instruction RenderInstruction)
}
