package market

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout 所有日历日参数统一使用 ISO 格式。
const DateLayout = "2006-01-02"

// SeriesKey 标识一条逻辑时间序列（symbol + 周期），对应存储中的一张表。
type SeriesKey struct {
	Symbol   string
	Interval Interval
}

func NewSeriesKey(symbol string, interval Interval) SeriesKey {
	return SeriesKey{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Interval: interval}
}

// TableName 返回序列对应的表名，如 BTCUSDT_1d。
func (k SeriesKey) TableName() string {
	return strings.ToUpper(k.Symbol) + "_" + strings.ToLower(k.Interval.Key)
}

func (k SeriesKey) String() string {
	return strings.ToUpper(k.Symbol) + "@" + strings.ToLower(k.Interval.Key)
}

// DateRange 闭区间 [From, To]，两端均为 UTC 日历日。
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange 解析 ISO 日期并校验 from <= to。
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := time.ParseInLocation(DateLayout, strings.TrimSpace(from), time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("无效的起始日期 %q: %w", from, err)
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(to), time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("无效的结束日期 %q: %w", to, err)
	}
	if t.Before(f) {
		return DateRange{}, fmt.Errorf("日期区间无效: %s > %s", from, to)
	}
	return DateRange{From: f, To: t}, nil
}

// StartMs 区间起点（From 当日 00:00:00 UTC）的 Unix 毫秒。
func (r DateRange) StartMs() int64 {
	return r.From.UnixMilli()
}

// EndMs 区间终点（To 当日最后一毫秒）的 Unix 毫秒。
func (r DateRange) EndMs() int64 {
	return r.To.AddDate(0, 0, 1).UnixMilli() - 1
}

func (r DateRange) String() string {
	return r.From.Format(DateLayout) + "~" + r.To.Format(DateLayout)
}
