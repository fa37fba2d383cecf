package market

import "time"

// Candle 单根 OHLCV K 线，OpenTime 为 Unix 毫秒。
type Candle struct {
	OpenTime int64   `json:"open_time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// Time 返回开盘时间（UTC）。
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

// Date 返回开盘时间所在的 UTC 日历日（YYYY-MM-DD）。
func (c Candle) Date() string {
	return c.Time().Format(DateLayout)
}
