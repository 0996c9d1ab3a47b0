package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
)

// storeTimeout 色の保存先への1回の問い合わせの上限
const storeTimeout = 10 * time.Second

// Colorizer 地域名ごとの色を一度だけ割り当てて保持する
// store が設定されている場合は永続ストアを正とし、キャッシュは読み込み済みの写し
type Colorizer struct {
	mu       sync.RWMutex
	cache    map[string]string
	store    repository.NameColorsRepository
	generate func() string
	group    singleflight.Group
}

// NewColorizer 新しい Colorizer を作成（store は nil 可）
func NewColorizer(store repository.NameColorsRepository) *Colorizer {
	return &Colorizer{
		cache:    make(map[string]string),
		store:    store,
		generate: randomColor,
	}
}

// WithGenerator 新しい色の生成方法を差し替える
func (c *Colorizer) WithGenerator(generate func() string) *Colorizer {
	c.generate = generate
	return c
}

// NormalizeName 色のキーに使う名前（小文字化）
func NormalizeName(name string) string {
	return cases.Lower(language.Und).String(name)
}

// ColorFor 名前に割り当てられた色を返す。未割り当てなら新しく割り当てる
// 同じ名前への同時アクセスは1回の割り当てにまとめられ、全員が同じ色を受け取る
func (c *Colorizer) ColorFor(ctx context.Context, name string) (string, error) {
	key := NormalizeName(name)
	if key == "" {
		return model.DefaultColor, nil
	}
	if color, ok := c.Cached(key); ok {
		return color, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		if color, ok := c.Cached(key); ok {
			return color, nil
		}

		color := c.generate()
		if c.store != nil {
			// 最初の呼び出し元が切断しても、同じ名前を待つ他の呼び出し元には結果を返す
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
			defer cancel()

			stored, err := c.store.GetOrCreate(fctx, key, color)
			if err != nil {
				return "", fmt.Errorf("地域名の色の取得に失敗: %w", err)
			}
			color = stored
		}
		return c.remember(key, color), nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Cached キャッシュ済みの色だけを参照する（ストアにはアクセスしない）
func (c *Colorizer) Cached(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	color, ok := c.cache[NormalizeName(name)]
	return color, ok
}

// DisplayColor キャッシュ済みの色を平均したセルの表示色
// 未割り当ての名前は既定色として扱う
func (c *Colorizer) DisplayColor(names []string) string {
	if len(names) == 0 {
		return model.DefaultColor
	}
	colors := make([]string, len(names))
	for i, name := range names {
		color, ok := c.Cached(name)
		if !ok {
			color = model.DefaultColor
		}
		colors[i] = color
	}
	return Blend(colors)
}

// Load ストアの全ての割り当てをキャッシュに読み込む
func (c *Colorizer) Load(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	colors, err := c.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("地域名の色の読み込みに失敗: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, nc := range colors {
		c.cache[NormalizeName(nc.Name)] = nc.Color
	}
	zap.L().Info("🎨 地域名の色を読み込み", zap.Int("count", len(colors)))
	return len(colors), nil
}

// Snapshot キャッシュの内容を名前順で返す
func (c *Colorizer) Snapshot() []model.NameColor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.NameColor, 0, len(c.cache))
	for name, color := range c.cache {
		out = append(out, model.NameColor{Name: name, Color: color})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// remember 未登録なら color を登録し、登録済みの色を返す
func (c *Colorizer) remember(key, color string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.cache[key]; ok {
		return existing
	}
	c.cache[key] = color
	return color
}

func randomColor() string {
	return GenerateColor(rand.IntN(360))
}
