package store

import (
	"context"
	"errors"
	"time"

	"klinesync/internal/market"
)

// ErrDuplicateKey 写入了已存在的开盘时间（主键冲突）。
// 调用方本应先过滤掉已存在的时间戳，出现该错误说明上游逻辑有缺陷，必须上抛而非吞掉。
var ErrDuplicateKey = errors.New("duplicate open_time")

// SeriesRange 一条序列当前覆盖的时间范围（Unix 毫秒）。
type SeriesRange struct {
	MinTime int64
	MaxTime int64
	Rows    int64
}

func (r SeriesRange) Empty() bool { return r.Rows == 0 }

func (r SeriesRange) MinDate() string {
	return time.UnixMilli(r.MinTime).UTC().Format(market.DateLayout)
}

func (r SeriesRange) MaxDate() string {
	return time.UnixMilli(r.MaxTime).UTC().Format(market.DateLayout)
}

// SeriesStore 持久层抽象：每条 (symbol, interval) 序列对应一张表。
// 所有方法显式返回错误，调用方不得把失败当作空结果处理。
type SeriesStore interface {
	// EnsureSeries 幂等建表，每次运行都可以安全调用。
	EnsureSeries(ctx context.Context, key market.SeriesKey) error
	// ExistingOpenTimes 返回区间内已存在的开盘时间（升序），仅用于成员判定。
	ExistingOpenTimes(ctx context.Context, key market.SeriesKey, rng market.DateRange) ([]int64, error)
	// WriteCandles 批量插入；空切片为 no-op。主键冲突返回 ErrDuplicateKey。
	WriteCandles(ctx context.Context, key market.SeriesKey, candles []market.Candle) (int, error)
	// ListSeries 枚举已知序列的表名，keyword 为空时返回全部。
	ListSeries(ctx context.Context, keyword string) ([]string, error)
	// SeriesRange 返回表内最早/最晚开盘时间；空表返回 Empty() 为真的结果。
	SeriesRange(ctx context.Context, table string) (SeriesRange, error)
	Close() error
}
