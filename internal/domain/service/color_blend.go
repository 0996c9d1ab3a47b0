package service

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"NeighborhoodMap-App/internal/domain/model"
)

// ErrUnparseableColor 色文字列を解析できない場合のエラー
var ErrUnparseableColor = errors.New("色を解析できません")

var (
	hexPattern = regexp.MustCompile(`^#?([0-9a-f]{3}|[0-9a-f]{6})$`)
	hslPattern = regexp.MustCompile(`^hsla?\(\s*(-?\d+(?:\.\d+)?)(?:deg)?\s*,\s*(\d+(?:\.\d+)?)%?\s*,\s*(\d+(?:\.\d+)?)%?\s*(?:,\s*\d*(?:\.\d+)?%?\s*)?\)$`)
	rgbPattern = regexp.MustCompile(`^rgba?\(\s*(\d+(?:\.\d+)?)\s*,\s*(\d+(?:\.\d+)?)\s*,\s*(\d+(?:\.\d+)?)\s*(?:,\s*\d*(?:\.\d+)?\s*)?\)$`)
)

// RGB 0〜255 の整数チャンネルで表した色
type RGB struct {
	R, G, B uint8
}

// String CSS の rgb() 表記
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// hslComponents hsl() 表記のときだけ元の成分を保持する
type hslComponents struct {
	h, s, l float64
}

type parsedColor struct {
	color colorful.Color
	hsl   *hslComponents
}

// ParseColor hex / hsl() / rgb() の色文字列を RGB に変換する
func ParseColor(value string) (RGB, error) {
	p, err := parseColor(value)
	if err != nil {
		return RGB{}, err
	}
	r, g, b := p.color.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

func parseColor(value string) (*parsedColor, error) {
	s := strings.ToLower(strings.TrimSpace(value))

	if m := hexPattern.FindStringSubmatch(s); m != nil {
		c, err := colorful.Hex("#" + m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnparseableColor, value)
		}
		return &parsedColor{color: c}, nil
	}

	if m := hslPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		sat, _ := strconv.ParseFloat(m[2], 64)
		light, _ := strconv.ParseFloat(m[3], 64)

		h = math.Mod(h, 360)
		if h < 0 {
			h += 360
		}
		sat = clamp(sat, 0, 100)
		light = clamp(light, 0, 100)

		return &parsedColor{
			color: colorful.Hsl(h, sat/100, light/100),
			hsl:   &hslComponents{h: h, s: sat, l: light},
		}, nil
	}

	if m := rgbPattern.FindStringSubmatch(s); m != nil {
		var ch [3]float64
		for i := range ch {
			v, _ := strconv.ParseFloat(m[i+1], 64)
			ch[i] = clamp(math.Round(v), 0, 255) / 255
		}
		return &parsedColor{color: colorful.Color{R: ch[0], G: ch[1], B: ch[2]}}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnparseableColor, value)
}

// Blend 複数の色をチャンネルごとに平均する
// 解析できない色は除外し、1件も残らなければ既定色を返す
func Blend(colors []string) string {
	if len(colors) == 0 {
		return model.DefaultColor
	}
	if len(colors) == 1 {
		if _, err := parseColor(colors[0]); err == nil {
			return colors[0]
		}
		return model.DefaultColor
	}

	var r, g, b float64
	count := 0
	for _, c := range colors {
		rgb, err := ParseColor(c)
		if err != nil {
			continue
		}
		r += float64(rgb.R)
		g += float64(rgb.G)
		b += float64(rgb.B)
		count++
	}
	if count == 0 {
		return model.DefaultColor
	}

	n := float64(count)
	return RGB{
		R: uint8(math.Round(r / n)),
		G: uint8(math.Round(g / n)),
		B: uint8(math.Round(b / n)),
	}.String()
}

// Darken 色の明度を percent ポイント下げる
// hsl() はそのまま hsl() で返し、それ以外は rgb() で返す。解析できない色は元の値を返す
func Darken(value string, percent float64) string {
	p, err := parseColor(value)
	if err != nil {
		return value
	}

	if p.hsl != nil {
		l := math.Max(0, p.hsl.l-percent)
		return fmt.Sprintf("hsl(%s, %s%%, %s%%)", formatNumber(p.hsl.h), formatNumber(p.hsl.s), formatNumber(l))
	}

	h, s, l := p.color.Hsl()
	l = math.Max(0, l-percent/100)
	r, g, b := colorful.Hsl(h, s, l).RGB255()
	return RGB{R: r, G: g, B: b}.String()
}

// GenerateColor 色相から固定の彩度・明度で hsl() 表記の色を作る
func GenerateColor(hue int) string {
	hue = ((hue % 360) + 360) % 360
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue, model.GeneratedSaturation, model.GeneratedLightness)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
