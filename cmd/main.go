package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"NeighborhoodMap-App/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "neighborhood-map",
	Short: "近所の地域名を地図上に集めて表示するサーバー",
	Long:  "ユーザーが地図上に付けた地域名をグリッドセルに集約し、地域名ごとの色で塗り分けて表示する。",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("設定の読み込みに失敗: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("ロガーの初期化に失敗: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
