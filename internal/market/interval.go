package market

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Interval 描述一条序列的固定周期（内部 duration + 数据源 interval）。
type Interval struct {
	Key            string
	Duration       time.Duration
	SourceInterval string
}

var supportedIntervals = map[string]Interval{
	"5m":  {Key: "5m", Duration: 5 * time.Minute, SourceInterval: "5m"},
	"15m": {Key: "15m", Duration: 15 * time.Minute, SourceInterval: "15m"},
	"30m": {Key: "30m", Duration: 30 * time.Minute, SourceInterval: "30m"},
	"1h":  {Key: "1h", Duration: time.Hour, SourceInterval: "1h"},
	"4h":  {Key: "4h", Duration: 4 * time.Hour, SourceInterval: "4h"},
	"1d":  {Key: "1d", Duration: 24 * time.Hour, SourceInterval: "1d"},
	"1w":  {Key: "1w", Duration: 7 * 24 * time.Hour, SourceInterval: "1w"},
}

// ParseInterval 返回标准化周期定义。
func ParseInterval(input string) (Interval, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	iv, ok := supportedIntervals[key]
	if !ok {
		return Interval{}, fmt.Errorf("不支持的周期: %s", input)
	}
	return iv, nil
}

// SupportedIntervals 返回所有支持的 key（排序后）。
func SupportedIntervals() []string {
	keys := make([]string, 0, len(supportedIntervals))
	for k := range supportedIntervals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Intraday 表示粒度小于一天（同一日历日内可能有多根 K 线）。
func (iv Interval) Intraday() bool {
	return iv.Duration < 24*time.Hour
}

func (iv Interval) StepMillis() int64 {
	return iv.Duration.Milliseconds()
}
