package app

import (
	"fmt"
	"log/slog"
	"time"

	"klinesync/internal/config"
	"klinesync/internal/gateway/binance"
	"klinesync/internal/store/runlog"
	sqlitestore "klinesync/internal/store/sqlite"
	"klinesync/internal/syncer"
)

// App 汇集配置好的各协作对象；启动期任何一环失败都视为不可恢复。
type App struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *sqlitestore.Store
	recorder *runlog.Recorder
	engine   *syncer.Engine
}

func NewApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config 不能为空")
	}
	if log == nil {
		log = slog.Default()
	}

	st, err := sqlitestore.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("打开存储失败: %w", err)
	}
	recorder, err := runlog.NewRecorder(cfg.Store.RunLogPath)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("打开运行日志失败: %w", err)
	}

	source := binance.New(binance.Config{
		RESTBaseURL: cfg.Binance.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.Binance.HTTPTimeoutSec) * time.Second,
		PageLimit:   cfg.Binance.PageLimit,
	})
	fetcher, err := syncer.NewFetcher(syncer.FetcherConfig{
		Source:          source,
		RateLimitPerMin: cfg.Binance.RateLimitPerMin,
		MaxBatch:        cfg.Binance.PageLimit,
		RetryAttempts:   cfg.Binance.RetryAttempts,
		Logger:          log,
	})
	if err != nil {
		_ = st.Close()
		_ = recorder.Close()
		return nil, err
	}
	engine, err := syncer.NewEngine(syncer.EngineConfig{
		Fetcher:       fetcher,
		Store:         st,
		Recorder:      recorder,
		Logger:        log,
		MaxConcurrent: cfg.Sync.MaxConcurrent,
	})
	if err != nil {
		_ = st.Close()
		_ = recorder.Close()
		return nil, err
	}

	return &App{cfg: cfg, log: log, store: st, recorder: recorder, engine: engine}, nil
}

func (a *App) Close() {
	if a.recorder != nil {
		_ = a.recorder.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
