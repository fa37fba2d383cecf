package syncer

import (
	"context"

	"klinesync/internal/market"
)

// PageSource 统一远端行情源的单页拉取行为。
// 返回按开盘时间升序、长度不超过 limit 的 K 线；区间内无数据返回空切片。
type PageSource interface {
	FetchPage(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]market.Candle, error)
	Name() string
}
