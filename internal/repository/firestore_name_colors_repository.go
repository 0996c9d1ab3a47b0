package repository

import (
	"context"
	"fmt"
	"net/url"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
)

// FirestoreNameColorsRepository neighborhoodColors/{name} に色を保存する
type FirestoreNameColorsRepository struct {
	client *firestore.Client
}

func NewFirestoreNameColorsRepository(client *firestore.Client) repository.NameColorsRepository {
	return &FirestoreNameColorsRepository{client: client}
}

// docRef 名前に "/" が含まれてもよいようにドキュメントIDはエスケープする
func (r *FirestoreNameColorsRepository) docRef(name string) *firestore.DocumentRef {
	return r.client.Collection(model.CollectionNeighborhoodColors).Doc(url.PathEscape(name))
}

func (r *FirestoreNameColorsRepository) Get(ctx context.Context, name string) (string, error) {
	snap, err := r.docRef(name).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("地域名の色の取得失敗: %w", err)
	}

	var nc model.NameColor
	if err := snap.DataTo(&nc); err != nil {
		return "", fmt.Errorf("地域名の色の変換失敗: %w", err)
	}
	return nc.Color, nil
}

// GetOrCreate トランザクション内で存在確認と作成を行う
func (r *FirestoreNameColorsRepository) GetOrCreate(ctx context.Context, name, candidate string) (string, error) {
	ref := r.docRef(name)

	var color string
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil && snap.Exists() {
			var nc model.NameColor
			if err := snap.DataTo(&nc); err != nil {
				return err
			}
			color = nc.Color
			return nil
		}

		color = candidate
		return tx.Create(ref, model.NameColor{Name: name, Color: candidate})
	})
	if err != nil {
		return "", fmt.Errorf("地域名の色の保存失敗: %w", err)
	}
	return color, nil
}

func (r *FirestoreNameColorsRepository) List(ctx context.Context) ([]model.NameColor, error) {
	docs, err := r.client.Collection(model.CollectionNeighborhoodColors).
		OrderBy("name", firestore.Asc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("地域名の色一覧の取得失敗: %w", err)
	}

	colors := make([]model.NameColor, 0, len(docs))
	for _, doc := range docs {
		var nc model.NameColor
		if err := doc.DataTo(&nc); err != nil {
			return nil, fmt.Errorf("地域名の色の変換失敗: %w", err)
		}
		colors = append(colors, nc)
	}
	return colors, nil
}
