package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"NeighborhoodMap-App/internal/domain/model"
)

// Config アプリケーション全体の設定（環境変数から読み込む）
type Config struct {
	Port    string `env:"PORT" env-default:"8080"`
	GinMode string `env:"GIN_MODE" env-default:"release"`

	Log LogConfig

	GridStep            float64 `env:"GRID_STEP" env-default:"0.001"`
	LocationsBackend    string  `env:"LOCATIONS_BACKEND" env-default:"memory"`
	ColorsBackend       string  `env:"COLORS_BACKEND" env-default:"memory"`
	LoadLimit           int     `env:"LOAD_LIMIT" env-default:"2000"`
	MergeOnSubmit       bool    `env:"MERGE_ON_SUBMIT" env-default:"false"`
	SubmitRatePerMinute int     `env:"SUBMIT_RATE_PER_MINUTE" env-default:"60"`

	Supabase  SupabaseConfig
	Postgres  PostgresConfig
	Firestore FirestoreConfig
	Redis     RedisConfig
}

// LogConfig ログ出力の設定
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// SupabaseConfig Supabase への接続設定
type SupabaseConfig struct {
	URL        string `env:"SUPABASE_URL"`
	AnonKey    string `env:"SUPABASE_ANON_KEY"`
	DBPassword string `env:"SUPABASE_DB_PASSWORD"`
}

// PostgresConfig PostgreSQL への直接接続設定（DATABASE_URL が空なら Supabase の設定から組み立てる）
type PostgresConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
}

// FirestoreConfig Firestore への接続設定
type FirestoreConfig struct {
	ProjectID       string `env:"FIRESTORE_PROJECT_ID"`
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

// RedisConfig Redis への接続設定
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// Load .env を読み込んだうえで環境変数から設定を作成する
// .env が無い場合は環境変数だけを使う
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	return &cfg, nil
}

// Validate 設定値の整合性を確認する
func (c *Config) Validate() error {
	if c.GridStep <= 0 || math.IsNaN(c.GridStep) || math.IsInf(c.GridStep, 0) {
		return fmt.Errorf("GRID_STEPは正の数である必要があります: %v", c.GridStep)
	}
	if !slices.Contains(model.GetLocationBackends(), c.LocationsBackend) {
		return fmt.Errorf("LOCATIONS_BACKENDが不正です: %q (利用可能: %v)", c.LocationsBackend, model.GetLocationBackends())
	}
	if !slices.Contains(model.GetColorBackends(), c.ColorsBackend) {
		return fmt.Errorf("COLORS_BACKENDが不正です: %q (利用可能: %v)", c.ColorsBackend, model.GetColorBackends())
	}
	if c.SubmitRatePerMinute < 0 {
		return fmt.Errorf("SUBMIT_RATE_PER_MINUTEは0以上である必要があります: %d", c.SubmitRatePerMinute)
	}

	for _, backend := range []string{c.LocationsBackend, c.ColorsBackend} {
		switch backend {
		case model.BackendSupabase:
			if c.Supabase.URL == "" {
				return fmt.Errorf("SUPABASE_URL環境変数が設定されていません")
			}
			if c.Supabase.AnonKey == "" {
				return fmt.Errorf("SUPABASE_ANON_KEY環境変数が設定されていません")
			}
		case model.BackendPostgres:
			if c.Postgres.DatabaseURL == "" && (c.Supabase.URL == "" || c.Supabase.DBPassword == "") {
				return fmt.Errorf("DATABASE_URL または SUPABASE_URL と SUPABASE_DB_PASSWORD を設定してください")
			}
		case model.BackendFirestore:
			if c.Firestore.ProjectID == "" {
				return fmt.Errorf("FIRESTORE_PROJECT_ID環境変数が設定されていません")
			}
		case model.BackendRedis:
			if c.Redis.Addr == "" {
				return fmt.Errorf("REDIS_ADDR環境変数が設定されていません")
			}
		}
	}
	return nil
}

// UsesBackend 地域レコードか色のどちらかが指定のバックエンドを使うか
func (c *Config) UsesBackend(backend string) bool {
	return c.LocationsBackend == backend || c.ColorsBackend == backend
}

// InitLogger グローバルな zap ロガーを初期化する
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("ログレベルの解析に失敗: %w", err)
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("ロガーの作成に失敗: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}
