package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"NeighborhoodMap-App/internal/config"
)

// PostgreSQLClient PostgreSQL直接接続クライアント
type PostgreSQLClient struct {
	DB *sql.DB
}

// BuildDSN 接続文字列を作成する
// DATABASE_URL が無ければ Supabase の URL とパスワードから組み立てる
func BuildDSN(pg config.PostgresConfig, sb config.SupabaseConfig) (string, error) {
	if pg.DatabaseURL != "" {
		return pg.DatabaseURL, nil
	}
	if sb.URL == "" {
		return "", fmt.Errorf("SUPABASE_URL環境変数が設定されていません")
	}
	if sb.DBPassword == "" {
		return "", fmt.Errorf("SUPABASE_DB_PASSWORD環境変数が設定されていません")
	}

	// https://xxx.supabase.co -> xxx.supabase.co
	host := strings.TrimPrefix(strings.TrimPrefix(sb.URL, "https://"), "http://")
	host = strings.TrimSuffix(host, "/")

	// SupabaseのPostgreSQL接続文字列（ポート6543を使用）
	return fmt.Sprintf(
		"host=db.%s port=6543 user=postgres password=%s dbname=postgres sslmode=require",
		host, sb.DBPassword,
	), nil
}

// NewPostgreSQLClient 新しいPostgreSQLクライアントを作成
func NewPostgreSQLClient(ctx context.Context, dsn string) (*PostgreSQLClient, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL接続の初期化に失敗: %w", err)
	}

	// 接続テスト
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("PostgreSQLへの接続に失敗: %w", err)
	}

	zap.L().Info("✅ PostgreSQLに接続しました")
	return NewPostgreSQLClientFromDB(db), nil
}

// NewPostgreSQLClientFromDB 既存の *sql.DB からクライアントを作成
func NewPostgreSQLClientFromDB(db *sql.DB) *PostgreSQLClient {
	return &PostgreSQLClient{DB: db}
}

// Close データベース接続を閉じる
func (pc *PostgreSQLClient) Close() error {
	if pc.DB != nil {
		return pc.DB.Close()
	}
	return nil
}

// HealthCheck データベース接続のヘルスチェック
func (pc *PostgreSQLClient) HealthCheck() error {
	if pc.DB == nil {
		return fmt.Errorf("PostgreSQLクライアントが初期化されていません")
	}
	return pc.DB.Ping()
}
