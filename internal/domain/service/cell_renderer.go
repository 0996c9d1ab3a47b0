package service

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"NeighborhoodMap-App/internal/domain/model"
)

const popupTemplate = `<div style="min-width: 200px; max-height: 300px; overflow-y: auto;">
  <div style="margin-bottom: 8px; font-weight: bold;">{{.Count}} Neighborhood{{if ne .Count 1}}s{{end}}:</div>
  <ul style="margin: 0; padding-left: 20px; list-style: none;">
  {{- range .Shares}}
    <li style="margin: 4px 0; display: flex; align-items: center; justify-content: space-between;">
      <div style="display: flex; align-items: center;"><span style="display: inline-block; width: 12px; height: 12px; background-color: {{.Color}}; margin-right: 8px; border: 1px solid #333;"></span>{{.Name}}</div>
      <span style="margin-left: 10px; font-weight: bold;">{{.Percentage}}%</span>
    </li>
  {{- end}}
  </ul>
  <div style="margin-top: 8px; font-size: 0.9em; color: #666;">{{.Coordinates}}<br>Last updated: {{.Updated}}</div>
</div>`

var popup = template.Must(template.New("popup").Parse(popupTemplate))

type popupShare struct {
	Name       string
	Color      template.CSS
	Percentage int
}

type popupData struct {
	Count       int
	Shares      []popupShare
	Coordinates string
	Updated     string
}

// CellRenderer 集約済みセルを地図の描画指示に変換する
type CellRenderer struct {
	grid      *Grid
	colorizer *Colorizer
}

// NewCellRenderer 新しい CellRenderer を作成
func NewCellRenderer(grid *Grid, colorizer *Colorizer) *CellRenderer {
	return &CellRenderer{
		grid:      grid,
		colorizer: colorizer,
	}
}

// CellBounds セルIDの中心からグリッド幅の半分ずつ広げた矩形
func (r *CellRenderer) CellBounds(cellID string) (orb.Bound, error) {
	lat, lng, err := r.grid.ParseCellID(cellID)
	if err != nil {
		return orb.Bound{}, err
	}
	center := orb.Point{lng, lat}
	half := r.grid.Step() / 2
	return orb.Bound{Min: center, Max: center}.Pad(half), nil
}

// Instruction セル1件分の描画指示を作成
func (r *CellRenderer) Instruction(cell *model.AggregatedCell) (model.RenderInstruction, error) {
	bounds, err := r.CellBounds(cell.CellID)
	if err != nil {
		return model.RenderInstruction{}, fmt.Errorf("セル範囲の計算に失敗: %w", err)
	}

	fill := cell.DisplayColor
	if fill == "" {
		fill = r.colorizer.DisplayColor(cell.Names)
	}

	shares := cell.Shares
	if shares == nil {
		shares = ComputeShares(cell.Names)
		for i := range shares {
			if color, ok := r.colorizer.Cached(shares[i].Name); ok {
				shares[i].Color = color
			} else {
				shares[i].Color = model.DefaultColor
			}
		}
	}

	content, err := renderPopup(cell, shares)
	if err != nil {
		return model.RenderInstruction{}, err
	}

	return model.RenderInstruction{
		CellID:       cell.CellID,
		Bounds:       bounds,
		FillColor:    fill,
		BorderColor:  Darken(fill, model.BorderDarkenPercent),
		Count:        cell.Count,
		PopupContent: content,
	}, nil
}

// Instructions 全セルの描画指示を作成（作成できないセルはスキップ）
func (r *CellRenderer) Instructions(cells []model.AggregatedCell) []model.RenderInstruction {
	out := make([]model.RenderInstruction, 0, len(cells))
	for i := range cells {
		instruction, err := r.Instruction(&cells[i])
		if err != nil {
			zap.L().Error("❌ 描画指示の作成に失敗", zap.String("cell_id", cells[i].CellID), zap.Error(err))
			continue
		}
		out = append(out, instruction)
	}
	return out
}

// Render 地図の既存の描画を消してから全セルを描画する
func (r *CellRenderer) Render(surface model.MapSurface, cells []model.AggregatedCell) int {
	surface.Clear()
	instructions := r.Instructions(cells)
	for _, instruction := range instructions {
		surface.Draw(instruction)
	}
	return len(instructions)
}

// FeatureCollection 描画指示を GeoJSON の FeatureCollection に変換
func FeatureCollection(instructions []model.RenderInstruction) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, instruction := range instructions {
		feature := geojson.NewFeature(instruction.Bounds.ToPolygon())
		feature.ID = instruction.CellID
		feature.Properties["cellId"] = instruction.CellID
		feature.Properties["fillColor"] = instruction.FillColor
		feature.Properties["borderColor"] = instruction.BorderColor
		feature.Properties["count"] = instruction.Count
		feature.Properties["popup"] = instruction.PopupContent
		fc.Append(feature)
	}
	return fc
}

func renderPopup(cell *model.AggregatedCell, shares []model.NameShare) (string, error) {
	data := popupData{
		Count:       len(cell.Names),
		Coordinates: fmt.Sprintf("%.4f, %.4f", cell.Lat, cell.Lng),
	}
	if !cell.MostRecentTimestamp.IsZero() {
		data.Updated = cell.MostRecentTimestamp.Format("2006-01-02 15:04:05 MST")
	}
	for _, share := range shares {
		color := share.Color
		if _, err := ParseColor(color); err != nil {
			color = model.DefaultColor
		}
		data.Shares = append(data.Shares, popupShare{
			Name:       share.Name,
			Color:      template.CSS(color),
			Percentage: share.Percentage,
		})
	}

	var buf bytes.Buffer
	if err := popup.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("ポップアップの生成に失敗: %w", err)
	}
	return buf.String(), nil
}
