package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"NeighborhoodMap-App/internal/application"
	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/service"
)

// LocationsHandler 地域名の投稿と地図表示に関するHTTPハンドラー
type LocationsHandler struct {
	locationsService application.LocationsService
}

// NewLocationsHandler LocationsHandlerの新しいインスタンスを作成
func NewLocationsHandler(locationsService application.LocationsService) *LocationsHandler {
	return &LocationsHandler{
		locationsService: locationsService,
	}
}

// RegisterRoutes ルーティングを登録する。submitMiddleware は POST /locations にだけ適用
func (h *LocationsHandler) RegisterRoutes(r gin.IRouter, submitMiddleware ...gin.HandlerFunc) {
	r.GET("/api/health", h.Health)

	r.POST("/locations", append(submitMiddleware, h.PostLocation)...)
	r.GET("/locations", h.GetLocations)
	r.GET("/cells", h.GetCells)
	r.GET("/cells.geojson", h.GetCellsGeoJSON)
	r.GET("/neighborhoods", h.GetNeighborhoods)
	r.GET("/colors/:name", h.GetColor)
	r.POST("/colors/blend", h.PostBlend)
}

// Health GET /api/health - ヘルスチェック
func (h *LocationsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "NeighborhoodMap-App",
	})
}

// PostLocation POST /locations - 地域名の投稿
func (h *LocationsHandler) PostLocation(c *gin.Context) {
	var req model.RawSubmission

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	record, err := h.locationsService.SubmitLocation(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetLocations GET /locations - 保存済みレコードの一覧
func (h *LocationsHandler) GetLocations(c *gin.Context) {
	records, err := h.locationsService.Records(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"locations": records,
	})
}

// GetCells GET /cells - 集約済みセルの一覧（bbox で絞り込み可）
func (h *LocationsHandler) GetCells(c *gin.Context) {
	bound, ok := h.parseBBox(c)
	if !ok {
		return
	}

	cells, err := h.locationsService.Cells(c.Request.Context(), bound)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cells": cells,
	})
}

// GetCellsGeoJSON GET /cells.geojson - 描画指示の FeatureCollection
func (h *LocationsHandler) GetCellsGeoJSON(c *gin.Context) {
	bound, ok := h.parseBBox(c)
	if !ok {
		return
	}

	instructions, err := h.locationsService.Instructions(c.Request.Context(), bound)
	if err != nil {
		h.respondError(c, err)
		return
	}

	body, err := service.FeatureCollection(instructions).MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to encode GeoJSON: " + err.Error(),
		})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}

// GetNeighborhoods GET /neighborhoods - 色が割り当て済みの地域名一覧
func (h *LocationsHandler) GetNeighborhoods(c *gin.Context) {
	names, err := h.locationsService.NeighborhoodNames(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"neighborhoods": names,
	})
}

// GetColor GET /colors/:name - 地域名の色
func (h *LocationsHandler) GetColor(c *gin.Context) {
	name := c.Param("name")

	color, err := h.locationsService.ColorFor(c.Request.Context(), name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NameColor{Name: service.NormalizeName(strings.TrimSpace(name)), Color: color})
}

// PostBlend POST /colors/blend - 色の平均
func (h *LocationsHandler) PostBlend(c *gin.Context) {
	var req model.BlendRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.BlendResponse{Color: h.locationsService.Blend(req.Colors)})
}

// parseBBox bbox=min_lng,min_lat,max_lng,max_lat を解析する（未指定なら nil）
// 不正な場合はレスポンスを書いて false を返す
func (h *LocationsHandler) parseBBox(c *gin.Context) (*orb.Bound, bool) {
	bbox := c.Query("bbox")
	if bbox == "" {
		return nil, true
	}

	coords := strings.Split(bbox, ",")
	if len(coords) != 4 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "bbox must contain 4 coordinates: min_lng,min_lat,max_lng,max_lat",
		})
		return nil, false
	}

	var values [4]float64
	labels := [4]string{"min_lng", "min_lat", "max_lng", "max_lat"}
	for i, coord := range coords {
		v, err := strconv.ParseFloat(strings.TrimSpace(coord), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_parameter",
				"message": "Invalid " + labels[i] + " value",
			})
			return nil, false
		}
		values[i] = v
	}

	bound := orb.Bound{
		Min: orb.Point{values[0], values[1]},
		Max: orb.Point{values[2], values[3]},
	}
	if bound.Min.Lon() > bound.Max.Lon() || bound.Min.Lat() > bound.Max.Lat() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "bbox min must not exceed max",
		})
		return nil, false
	}
	return &bound, true
}

// respondError サービス層のエラーをHTTPレスポンスに変換する
func (h *LocationsHandler) respondError(c *gin.Context, err error) {
	var validationErr *application.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"field":   validationErr.Field,
			"message": validationErr.Message,
		})
	case errors.Is(err, application.ErrStoreUnavailable):
		zap.L().Error("❌ 保存先へのアクセスに失敗", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "store_unavailable",
			"message":   "保存先に接続できませんでした。しばらくしてから再試行してください",
			"retryable": true,
		})
	default:
		zap.L().Error("❌ リクエストの処理に失敗", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
	}
}
