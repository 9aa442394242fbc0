package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"food-co2-estimator/internal/core/ai/cache"
	"food-co2-estimator/internal/core/ai/openrouter"
	"food-co2-estimator/internal/core/ai/queue"
	"food-co2-estimator/internal/core/ai/service"
	"food-co2-estimator/internal/core/emission"
	"food-co2-estimator/internal/core/estimator"
	"food-co2-estimator/internal/core/scraper"
	"food-co2-estimator/internal/core/translate"
	"food-co2-estimator/internal/core/websearch"
	"food-co2-estimator/internal/infrastructure/config"
	"food-co2-estimator/internal/infrastructure/database"
	"food-co2-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

// App 組裝完成的服務
type App struct {
	Estimator *estimator.Estimator
	DB        *sql.DB
	Repo      *emission.Repository
	Queue     *queue.Manager
	Cache     cache.Store
	LLM       *service.Service

	closers []func() error
}

// CacheBackend 快取後端名稱，未啟用時為空字串
func (a *App) CacheBackend() string {
	if a.Cache == nil {
		return ""
	}
	return a.Cache.Backend()
}

// Build 依設定建立資料庫、快取、模型服務、翻譯、搜尋與估算器
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}

	db, err := database.OpenAndMigrate(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open emission database: %w", err)
	}
	app.DB = db
	app.closers = append(app.closers, db.Close)

	app.Repo = emission.NewRepository(db)
	index, err := emission.LoadIndex(ctx, app.Repo)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("load emission index: %w", err)
	}
	if index.Len() == 0 {
		common.LogWarn("排放係數資料庫是空的，請先執行 seed", zap.String("path", cfg.Database.Path))
	}

	// 快取失敗不影響服務
	store, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		common.LogWarn("快取初始化失敗，停用快取",
			zap.String("backend", cfg.Cache.Backend),
			zap.Error(err),
		)
		store = nil
	}
	if store != nil {
		app.Cache = store
		app.closers = append(app.closers, store.Close)
	}

	client := openrouter.NewClient(cfg.OpenRouter)
	app.closers = append(app.closers, client.Close)
	opts := []service.Option{
		service.WithTimeout(cfg.OpenRouter.Timeout),
		service.WithMaxTokens(cfg.OpenRouter.MaxTokens),
		service.WithTemperature(cfg.OpenRouter.Temperature),
	}
	if app.Cache != nil {
		opts = append(opts, service.WithCache(app.Cache))
	}
	app.LLM = service.NewService(client, opts...)

	translators, err := translate.FromConfig(cfg.Translate, cfg.Estimator.TranslateTimeout, app.LLM)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("translation providers: %w", err)
	}

	app.Queue = queue.NewManager(cfg.Queue)
	app.closers = append(app.closers, func() error {
		app.Queue.Close()
		return nil
	})

	var web estimator.WebSearcher
	if cfg.Search.Enabled && cfg.Search.APIKey != "" {
		web = websearch.NewClient(cfg.Search, cfg.Estimator.SearchTimeout)
	} else {
		common.LogWarn("網路搜尋未啟用，資料庫找不到的食材不會補查")
	}

	app.Estimator = estimator.New(estimator.Options{
		LLM:         app.LLM,
		Pages:       scraper.NewFetcher(cfg.Estimator.FetchTimeout, cfg.Estimator.MaxPageBytes),
		Detector:    estimator.NewWhatlangDetector(),
		Translators: translators,
		Selector:    translate.NewRoundRobin(0),
		Index:       index,
		Web:         web,
		Pool:        app.Queue,
		Config:      cfg.Estimator,
	})

	common.LogInfo("服務組裝完成",
		zap.String("model", app.LLM.Model()),
		zap.Int("emission_factors", index.Len()),
		zap.Int("translators", len(translators)),
		zap.Bool("search_enabled", web != nil),
		zap.String("cache_backend", app.CacheBackend()),
	)
	return app, nil
}

// Close 依建立的相反順序釋放資源
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
