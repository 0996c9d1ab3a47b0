package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"NeighborhoodMap-App/internal/application"
	"NeighborhoodMap-App/internal/config"
	"NeighborhoodMap-App/internal/database"
	"NeighborhoodMap-App/internal/domain/model"
	domainrepo "NeighborhoodMap-App/internal/domain/repository"
	"NeighborhoodMap-App/internal/domain/service"
	"NeighborhoodMap-App/internal/infrastructure/cache"
	infradb "NeighborhoodMap-App/internal/infrastructure/database"
	fsclient "NeighborhoodMap-App/internal/infrastructure/firestore"
	"NeighborhoodMap-App/internal/repository"
)

// appEnv 設定に応じて組み立てたサービスと接続
type appEnv struct {
	Service application.LocationsService
	closers []func() error
}

// Close 開いた接続を逆順に閉じる
func (e *appEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Warn("⚠️ 接続のクローズに失敗", zap.Error(err))
		}
	}
}

// initApp 設定された保存先に接続し、LocationsService を組み立てる
func initApp(ctx context.Context, cfg *config.Config) (env *appEnv, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}

	grid, err := service.NewGrid(cfg.GridStep)
	if err != nil {
		return nil, err
	}

	env = &appEnv{}
	defer func() {
		if err != nil {
			env.Close()
		}
	}()

	var supabaseClient *database.SupabaseClient
	if cfg.UsesBackend(model.BackendSupabase) {
		zap.L().Info("Supabaseクライアントを初期化します")
		supabaseClient, err = database.NewSupabaseClient(cfg.Supabase)
		if err != nil {
			return nil, err
		}
		if err := supabaseClient.HealthCheck(); err != nil {
			return nil, fmt.Errorf("Supabaseヘルスチェック失敗: %w", err)
		}
		zap.L().Info("✅ Supabase connection successful!")
	}

	var pgClient *infradb.PostgreSQLClient
	if cfg.UsesBackend(model.BackendPostgres) {
		dsn, err := infradb.BuildDSN(cfg.Postgres, cfg.Supabase)
		if err != nil {
			return nil, err
		}
		pgClient, err = infradb.NewPostgreSQLClient(ctx, dsn)
		if err != nil {
			return nil, err
		}
		env.closers = append(env.closers, pgClient.Close)
		if err := pgClient.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}

	var locations domainrepo.LocationsRepository
	switch cfg.LocationsBackend {
	case model.BackendSupabase:
		locations = repository.NewSupabaseLocationsRepository(supabaseClient, grid)
	case model.BackendPostgres:
		locations = repository.NewPostgresLocationsRepository(pgClient, grid)
	default:
		locations = repository.NewMemoryLocationsRepository()
	}

	var colors domainrepo.NameColorsRepository
	switch cfg.ColorsBackend {
	case model.BackendSupabase:
		colors = repository.NewSupabaseNameColorsRepository(supabaseClient)
	case model.BackendPostgres:
		colors = repository.NewPostgresNameColorsRepository(pgClient)
	case model.BackendFirestore:
		fs, err := fsclient.NewFirestoreClient(ctx, cfg.Firestore)
		if err != nil {
			return nil, err
		}
		env.closers = append(env.closers, fs.Close)
		colors = repository.NewFirestoreNameColorsRepository(fs.GetClient())
	case model.BackendRedis:
		rc, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		env.closers = append(env.closers, rc.Close)
		colors = repository.NewRedisNameColorsRepository(rc.GetClient())
	default:
		colors = repository.NewMemoryNameColorsRepository()
	}

	zap.L().Info("保存先を設定しました",
		zap.String("locations", cfg.LocationsBackend),
		zap.String("colors", cfg.ColorsBackend),
		zap.Float64("grid_step", grid.Step()),
	)

	env.Service = application.NewLocationsService(
		locations,
		service.NewLocationNormalizer(grid),
		service.NewColorizer(colors),
		application.Options{
			LoadLimit:     cfg.LoadLimit,
			MergeOnSubmit: cfg.MergeOnSubmit,
		},
	)
	return env, nil
}
