package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
	"NeighborhoodMap-App/internal/domain/service"
)

// ErrStoreUnavailable 保存先への読み書きに失敗した場合のエラー（再試行可能）
var ErrStoreUnavailable = errors.New("保存先を利用できません")

// colorResolveConcurrency 色の解決を同時に行う最大数
const colorResolveConcurrency = 8

// ValidationError はバリデーションエラーを表す
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// LocationsService 地域名の投稿と地図表示に関するビジネスロジックを提供するサービス
type LocationsService interface {
	// SubmitLocation 地域名の投稿を検証・正規化して保存
	SubmitLocation(ctx context.Context, req *model.RawSubmission) (*model.LocationRecord, error)

	// Records 保存済みのレコードを新しい順に取得
	Records(ctx context.Context) ([]model.LocationRecord, error)

	// Cells 集約済みのセル一覧（表示色と割合付き）を取得。bound が nil なら全件
	Cells(ctx context.Context, bound *orb.Bound) ([]model.AggregatedCell, error)

	// Instructions セルごとの描画指示を取得
	Instructions(ctx context.Context, bound *orb.Bound) ([]model.RenderInstruction, error)

	// RenderMap 地図を消去してから全セルを描画
	RenderMap(ctx context.Context, surface model.MapSurface) (int, error)

	// NeighborhoodNames 色が割り当て済みの地域名一覧
	NeighborhoodNames(ctx context.Context) ([]string, error)

	// ColorFor 地域名の色を取得（未割り当てなら割り当てる）
	ColorFor(ctx context.Context, name string) (string, error)

	// Blend 色を平均する
	Blend(colors []string) string

	// WarmUp 保存済みの色をキャッシュに読み込む
	WarmUp(ctx context.Context) error
}

// Options サービスの動作設定
type Options struct {
	LoadLimit     int
	MergeOnSubmit bool
}

// locationsServiceImpl LocationsServiceの実装
type locationsServiceImpl struct {
	locationsRepo repository.LocationsRepository
	normalizer    *service.LocationNormalizer
	aggregator    *service.Aggregator
	colorizer     *service.Colorizer
	renderer      *service.CellRenderer
	opts          Options
}

// NewLocationsService LocationsServiceの新しいインスタンスを作成
func NewLocationsService(
	locationsRepo repository.LocationsRepository,
	normalizer *service.LocationNormalizer,
	colorizer *service.Colorizer,
	opts Options,
) LocationsService {
	grid := normalizer.Grid()
	return &locationsServiceImpl{
		locationsRepo: locationsRepo,
		normalizer:    normalizer,
		aggregator:    service.NewAggregator(grid),
		colorizer:     colorizer,
		renderer:      service.NewCellRenderer(grid, colorizer),
		opts:          opts,
	}
}

// SubmitLocation 地域名の投稿を保存
func (s *locationsServiceImpl) SubmitLocation(ctx context.Context, req *model.RawSubmission) (*model.LocationRecord, error) {
	// 入力バリデーション（レコードを作る前に弾く）
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	record := s.normalizer.Normalize(name, *req.Lat, *req.Lng)

	// 色を先に確定させる（失敗したら何も保存しない）
	if _, err := s.colorizer.ColorFor(ctx, name); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if s.opts.MergeOnSubmit {
		merged, err := s.mergeIntoExisting(ctx, &record)
		if err != nil {
			return nil, err
		}
		if merged != nil {
			zap.L().Info("📝 既存のセルに地域名を追加", zap.String("cell_id", merged.CellID), zap.Strings("names", merged.Names))
			return merged, nil
		}
	}

	stored, err := s.locationsRepo.Append(ctx, &record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	zap.L().Info("📍 地域名を保存", zap.String("cell_id", stored.CellID), zap.String("name", name))
	return stored, nil
}

// mergeIntoExisting 同じセルに既存のレコードがあれば names を合わせて更新する
// 既存のレコードが無ければ nil を返す
func (s *locationsServiceImpl) mergeIntoExisting(ctx context.Context, record *model.LocationRecord) (*model.LocationRecord, error) {
	records, err := s.locationsRepo.List(ctx, s.opts.LoadLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var existing *model.AggregatedCell
	for _, cell := range s.aggregator.Aggregate(records) {
		if cell.CellID == record.CellID {
			existing = &cell
			break
		}
	}
	if existing == nil {
		return nil, nil
	}

	names := append([]string{}, existing.Names...)
	for _, name := range record.Names {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	amended, err := s.locationsRepo.Amend(ctx, record.CellID, names, record.Timestamp)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return amended, nil
}

// Records 保存済みのレコードを取得
func (s *locationsServiceImpl) Records(ctx context.Context) ([]model.LocationRecord, error) {
	records, err := s.locationsRepo.List(ctx, s.opts.LoadLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return records, nil
}

// Cells 集約済みのセル一覧を取得
func (s *locationsServiceImpl) Cells(ctx context.Context, bound *orb.Bound) ([]model.AggregatedCell, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}

	cells := s.aggregator.Aggregate(records)
	if bound != nil {
		cells = filterCells(cells, *bound)
	}

	s.resolveColors(ctx, cells)

	for i := range cells {
		cells[i].DisplayColor = s.colorizer.DisplayColor(cells[i].Names)
		shares := service.ComputeShares(cells[i].Names)
		for j := range shares {
			if color, ok := s.colorizer.Cached(shares[j].Name); ok {
				shares[j].Color = color
			} else {
				shares[j].Color = model.DefaultColor
			}
		}
		cells[i].Shares = shares
	}
	return cells, nil
}

// resolveColors セルに含まれる全ての地域名の色を並行して確定させる
// 1つの名前の失敗で他の名前の取得は止めない。失敗した名前は既定色で表示する
func (s *locationsServiceImpl) resolveColors(ctx context.Context, cells []model.AggregatedCell) {
	seen := make(map[string]struct{})
	var g errgroup.Group
	g.SetLimit(colorResolveConcurrency)

	var failed atomic.Int32
	for _, cell := range cells {
		for _, name := range cell.Names {
			key := service.NormalizeName(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if _, ok := s.colorizer.Cached(key); ok {
				continue
			}
			g.Go(func() error {
				if _, err := s.colorizer.ColorFor(ctx, name); err != nil {
					failed.Add(1)
					zap.L().Warn("⚠️ 地域名の色を取得できませんでした", zap.String("name", name), zap.Error(err))
				}
				return nil
			})
		}
	}

	_ = g.Wait()
	if n := failed.Load(); n > 0 {
		zap.L().Warn("⚠️ 一部の地域名を既定色で表示します", zap.Int32("failed", n))
	}
}

// Instructions セルごとの描画指示を取得
func (s *locationsServiceImpl) Instructions(ctx context.Context, bound *orb.Bound) ([]model.RenderInstruction, error) {
	cells, err := s.Cells(ctx, bound)
	if err != nil {
		return nil, err
	}
	return s.renderer.Instructions(cells), nil
}

// RenderMap 地図を描画。読み込みに失敗した場合は地図に触れない
func (s *locationsServiceImpl) RenderMap(ctx context.Context, surface model.MapSurface) (int, error) {
	cells, err := s.Cells(ctx, nil)
	if err != nil {
		return 0, err
	}
	return s.renderer.Render(surface, cells), nil
}

// NeighborhoodNames 色が割り当て済みの地域名一覧を取得
func (s *locationsServiceImpl) NeighborhoodNames(ctx context.Context) ([]string, error) {
	if _, err := s.colorizer.Load(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	snapshot := s.colorizer.Snapshot()
	names := make([]string, 0, len(snapshot))
	for _, nc := range snapshot {
		names = append(names, nc.Name)
	}
	sort.Strings(names)
	return names, nil
}

// ColorFor 地域名の色を取得
func (s *locationsServiceImpl) ColorFor(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "地域名は必須です"}
	}

	color, err := s.colorizer.ColorFor(ctx, name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return color, nil
}

// Blend 色を平均する
func (s *locationsServiceImpl) Blend(colors []string) string {
	return service.Blend(colors)
}

// WarmUp 保存済みの色をキャッシュに読み込む
func (s *locationsServiceImpl) WarmUp(ctx context.Context) error {
	if _, err := s.colorizer.Load(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// validateSubmission 投稿の詳細バリデーションを行う
func validateSubmission(req *model.RawSubmission) error {
	if req == nil {
		return &ValidationError{Field: "body", Message: "リクエストが空です"}
	}
	if strings.TrimSpace(req.Name) == "" {
		return &ValidationError{Field: "name", Message: "地域名は必須です"}
	}
	if req.Lat == nil {
		return &ValidationError{Field: "lat", Message: "緯度は必須です"}
	}
	if req.Lng == nil {
		return &ValidationError{Field: "lng", Message: "経度は必須です"}
	}

	// 緯度経度の範囲チェック
	if math.IsNaN(*req.Lat) || *req.Lat < -90 || *req.Lat > 90 {
		return &ValidationError{Field: "lat", Message: "緯度は-90から90の範囲で指定してください"}
	}
	if math.IsNaN(*req.Lng) || *req.Lng < -180 || *req.Lng > 180 {
		return &ValidationError{Field: "lng", Message: "経度は-180から180の範囲で指定してください"}
	}
	return nil
}

func filterCells(cells []model.AggregatedCell, bound orb.Bound) []model.AggregatedCell {
	out := make([]model.AggregatedCell, 0, len(cells))
	for _, cell := range cells {
		if bound.Contains(orb.Point{cell.Lng, cell.Lat}) {
			out = append(out, cell)
		}
	}
	return out
}
