package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"klinesync/internal/market"

	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"
)

// FetcherConfig 配置 Fetcher。
type FetcherConfig struct {
	Source          PageSource
	RateLimitPerMin int
	MaxBatch        int
	RetryAttempts   int
	Logger          *slog.Logger
}

// Fetcher 负责把宽于单页的日期区间拼接成一条完整序列：
// 游标从区间起点出发，每页结束后推进到「页内最后一根开盘时间 + 1ms」，
// 保证即使单页少于 limit 也能前进，且跨页不会出现重复时间戳。
type Fetcher struct {
	source   PageSource
	limiter  *rate.Limiter
	maxBatch int
	retries  int
	log      *slog.Logger

	retryMin time.Duration
	retryMax time.Duration
}

func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("source 不能为空")
	}
	ratePerSec := rate.Limit(float64(cfg.RateLimitPerMin) / 60.0)
	if cfg.RateLimitPerMin <= 0 {
		ratePerSec = 8
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 1000
	}
	retries := cfg.RetryAttempts
	if retries <= 0 {
		retries = 3
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		source:   cfg.Source,
		limiter:  rate.NewLimiter(ratePerSec, maxBatch),
		maxBatch: maxBatch,
		retries:  retries,
		log:      log,
		retryMin: 200 * time.Millisecond,
		retryMax: 3 * time.Second,
	}, nil
}

// FetchRange 拉取 [rng.From, rng.To] 内的全部 K 线，升序且无重复时间戳。
// 任意一页失败则整个区间失败，已取得的部分结果被丢弃。
func (f *Fetcher) FetchRange(ctx context.Context, key market.SeriesKey, rng market.DateRange) ([]market.Candle, error) {
	startMs, endMs := rng.StartMs(), rng.EndMs()
	step := key.Interval.StepMillis()

	var out []market.Candle
	cursor := startMs
	for cursor <= endMs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		remaining := int((endMs-cursor)/step) + 1
		if remaining < 1 {
			remaining = 1
		}
		if remaining > f.maxBatch {
			remaining = f.maxBatch
		}
		page, err := f.fetchPage(ctx, key, cursor, endMs, remaining)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		for _, c := range page {
			// 提供方可能越过 dateTo 返回数据，或在页间边界重复最后一根
			if c.OpenTime > endMs {
				continue
			}
			if len(out) > 0 && c.OpenTime <= out[len(out)-1].OpenTime {
				continue
			}
			out = append(out, c)
		}
		next := page[len(page)-1].OpenTime + 1 // 最小时间单位为毫秒
		if next <= cursor {
			// 提供方无视 startTime 返回旧数据，游标无法前进，只能停止
			break
		}
		cursor = next
	}
	return out, nil
}

// fetchPage 带有限次退避重试的单页拉取；重试是内部韧性细节，不改变对外契约。
func (f *Fetcher) fetchPage(ctx context.Context, key market.SeriesKey, start, end int64, limit int) ([]market.Candle, error) {
	bo := &backoff.Backoff{Min: f.retryMin, Max: f.retryMax, Jitter: true}
	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		page, err := f.source.FetchPage(ctx, key.Symbol, key.Interval.SourceInterval, start, end, limit)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if attempt == f.retries || ctx.Err() != nil {
			break
		}
		wait := bo.Duration()
		f.log.Warn("拉取单页失败，准备重试",
			"source", f.source.Name(), "series", key.String(), "attempt", attempt, "wait", wait, "err", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
