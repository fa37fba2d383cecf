package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"klinesync/internal/market"
	"klinesync/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Params 一次同步运行的输入：symbols × intervals 笛卡尔积共用同一个日期区间。
type Params struct {
	Symbols   []string
	Intervals []market.Interval
	Range     market.DateRange
}

// PairResult 单条序列的同步结果。
type PairResult struct {
	Fetched int
	Written int
	Dates   int
}

// RunResult 供运行日志记录的单条序列结果。
type RunResult struct {
	RunID      string
	Symbol     string
	Interval   string
	DateFrom   string
	DateTo     string
	Fetched    int
	Written    int
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

const (
	StatusDone   = "done"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

// RunRecorder 持久化每条序列的同步结果；nil 表示不记录。
type RunRecorder interface {
	Record(ctx context.Context, res RunResult) error
}

// EngineConfig 配置 Engine。
type EngineConfig struct {
	Fetcher       *Fetcher
	Store         store.SeriesStore
	Recorder      RunRecorder
	Logger        *slog.Logger
	MaxConcurrent int
}

// Engine 无状态编排器：对每条序列做「建表 → 拉取 → 与已有时间戳求差 → 按日补写」。
type Engine struct {
	fetcher       *Fetcher
	store         store.SeriesStore
	recorder      RunRecorder
	log           *slog.Logger
	maxConcurrent int
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher 不能为空")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store 不能为空")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Engine{
		fetcher:       cfg.Fetcher,
		store:         cfg.Store,
		recorder:      cfg.Recorder,
		log:           log,
		maxConcurrent: maxConcurrent,
	}, nil
}

// SyncPair 同步单条序列。存在性比较按开盘时间戳（而非日历日）进行，
// 对日内周期同样正确；写入仍按日历日分批，单日失败不阻塞其他日期。
func (e *Engine) SyncPair(ctx context.Context, key market.SeriesKey, rng market.DateRange) (PairResult, error) {
	var res PairResult

	if err := e.store.EnsureSeries(ctx, key); err != nil {
		return res, err
	}

	candles, err := e.fetcher.FetchRange(ctx, key, rng)
	if err != nil {
		return res, err
	}
	res.Fetched = len(candles)
	if len(candles) == 0 {
		e.log.Warn("区间内没有任何数据", "series", key.String(), "range", rng.String())
		return res, nil
	}

	existing, err := e.store.ExistingOpenTimes(ctx, key, rng)
	if err != nil {
		return res, err
	}
	existingSet := make(map[int64]struct{}, len(existing))
	for _, ts := range existing {
		existingSet[ts] = struct{}{}
	}

	missingByDate := make(map[string][]market.Candle)
	for _, c := range candles {
		if _, ok := existingSet[c.OpenTime]; ok {
			continue
		}
		date := c.Date()
		missingByDate[date] = append(missingByDate[date], c)
	}
	if len(missingByDate) == 0 {
		e.log.Info("数据已完整，无需写入", "series", key.String(), "range", rng.String(), "fetched", res.Fetched)
		return res, nil
	}

	dates := make([]string, 0, len(missingByDate))
	for d := range missingByDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var writeErrs []error
	for _, date := range dates {
		batch := missingByDate[date]
		n, err := e.store.WriteCandles(ctx, key, batch)
		if err != nil {
			e.log.Error("单日批次写入失败", "series", key.String(), "date", date, "err", err)
			writeErrs = append(writeErrs, fmt.Errorf("%s: %w", date, err))
			continue
		}
		res.Written += n
		res.Dates++
	}
	e.log.Info("序列同步完成",
		"series", key.String(), "range", rng.String(),
		"fetched", res.Fetched, "written", res.Written, "dates", res.Dates)
	if len(writeErrs) > 0 {
		return res, errors.Join(writeErrs...)
	}
	return res, nil
}

// Run 依次（或按 MaxConcurrent 并行）同步全部序列。
// 单条序列失败只记录并继续，全部失败时才返回错误。
func (e *Engine) Run(ctx context.Context, p Params) error {
	if len(p.Symbols) == 0 || len(p.Intervals) == 0 {
		return fmt.Errorf("symbols/intervals 不能为空")
	}
	runID := uuid.NewString()
	total := len(p.Symbols) * len(p.Intervals)
	e.log.Info("同步开始", "run_id", runID, "pairs", total, "range", p.Range.String())

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)
	for _, symbol := range p.Symbols {
		for _, interval := range p.Intervals {
			key := market.NewSeriesKey(symbol, interval)
			g.Go(func() error {
				started := time.Now()
				res, err := e.SyncPair(gctx, key, p.Range)
				status := StatusDone
				errMsg := ""
				if err != nil {
					status = StatusFailed
					errMsg = err.Error()
					failed.Add(1)
					e.log.Error("序列同步失败，继续处理下一条", "series", key.String(), "err", err)
				} else if res.Fetched == 0 {
					status = StatusEmpty
				}
				e.record(gctx, RunResult{
					RunID:      runID,
					Symbol:     key.Symbol,
					Interval:   key.Interval.Key,
					DateFrom:   p.Range.From.Format(market.DateLayout),
					DateTo:     p.Range.To.Format(market.DateLayout),
					Fetched:    res.Fetched,
					Written:    res.Written,
					Status:     status,
					Error:      errMsg,
					StartedAt:  started,
					FinishedAt: time.Now(),
				})
				return nil
			})
		}
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 && int(n) == total {
		return fmt.Errorf("全部 %d 条序列同步失败", total)
	}
	e.log.Info("同步结束", "run_id", runID, "pairs", total, "failed", failed.Load())
	return nil
}

func (e *Engine) record(ctx context.Context, res RunResult) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, res); err != nil {
		e.log.Warn("写入运行日志失败", "series", res.Symbol+"@"+res.Interval, "err", err)
	}
}
