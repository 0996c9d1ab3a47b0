package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"NeighborhoodMap-App/internal/handler"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTPサーバーを起動する",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		// 起動時に保存済みの色を読み込む（失敗しても起動は続ける）
		if err := env.Service.WarmUp(ctx); err != nil {
			zap.L().Warn("⚠️ 地域名の色の読み込みに失敗", zap.Error(err))
		}

		gin.SetMode(cfg.GinMode)
		r := gin.New()
		r.Use(gin.Recovery(), handler.RequestLogger())
		handler.NewLocationsHandler(env.Service).RegisterRoutes(r, handler.NewIPRateLimiter(cfg.SubmitRatePerMinute).Middleware())

		port := servePort
		if port == "" {
			port = cfg.Port
		}

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("サーバーを停止します")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("🚀 NeighborhoodMap-App server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "待ち受けポート（未指定なら PORT）")
	rootCmd.AddCommand(serveCmd)
}
