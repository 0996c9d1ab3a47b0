package firestore

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"NeighborhoodMap-App/internal/config"
)

type FirestoreClient struct {
	client *firestore.Client
}

func NewFirestoreClient(ctx context.Context, cfg config.FirestoreConfig) (*FirestoreClient, error) {
	var client *firestore.Client
	var err error

	// Cloud Run環境とエミュレータではデフォルト認証を使用
	useDefault := os.Getenv("K_SERVICE") != "" || os.Getenv("FIRESTORE_EMULATOR_HOST") != ""

	if useDefault || cfg.CredentialsFile == "" {
		zap.L().Info("☁️ Firestore: デフォルト認証を使用", zap.String("project_id", cfg.ProjectID))
		client, err = firestore.NewClient(ctx, cfg.ProjectID)
	} else if _, statErr := os.Stat(cfg.CredentialsFile); statErr != nil {
		zap.L().Warn("⚠️ 認証ファイルが見つからないためデフォルト認証を使用", zap.String("file", cfg.CredentialsFile))
		client, err = firestore.NewClient(ctx, cfg.ProjectID)
	} else {
		zap.L().Info("📄 認証ファイルを使用", zap.String("file", cfg.CredentialsFile))
		client, err = firestore.NewClient(ctx, cfg.ProjectID, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if err != nil {
		return nil, fmt.Errorf("Firestoreクライアントの作成に失敗: %w", err)
	}

	zap.L().Info("✅ Firestoreクライアントを初期化しました", zap.String("project_id", cfg.ProjectID))
	return &FirestoreClient{client: client}, nil
}

func (fc *FirestoreClient) Close() error {
	return fc.client.Close()
}

func (fc *FirestoreClient) GetClient() *firestore.Client {
	return fc.client
}
