package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"klinesync/internal/market"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

// Binance 现货 klines 接口单页上限。
const maxPageLimit = 1000

// Source 基于 go-binance SDK 拉取现货 K 线，实现 sync.PageSource。
type Source struct {
	cfg    Config
	client *binance.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	client.BaseURL = final.RESTBaseURL
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: client}
}

func (s *Source) Name() string { return "binance" }

// FetchPage 拉取单页 K 线，按开盘时间升序返回，长度不超过 limit。
// 区间内无数据返回空切片而非错误；页内乱序会被纠正，但不做跨页去重。
func (s *Source) FetchPage(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]market.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol 不能为空")
	}
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return nil, fmt.Errorf("interval 不能为空")
	}
	if limit <= 0 {
		limit = s.cfg.PageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	svc := s.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit)
	if start > 0 {
		svc = svc.StartTime(start)
	}
	if end > 0 {
		svc = svc.EndTime(end)
	}
	kls, err := svc.Do(ctx)
	if err != nil {
		return nil, wrapFetchErr(err)
	}

	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime: kl.OpenTime,
			Open:     parseFloat(kl.Open),
			High:     parseFloat(kl.High),
			Low:      parseFloat(kl.Low),
			Close:    parseFloat(kl.Close),
			Volume:   parseFloat(kl.Volume),
		})
	}
	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].OpenTime < out[j].OpenTime }) {
		sort.Slice(out, func(i, j int) bool { return out[i].OpenTime < out[j].OpenTime })
	}
	return out, nil
}

// wrapFetchErr 统一包装为 SourceUnavailableError，保留交易所返回的错误负载。
func wrapFetchErr(err error) error {
	payload := ""
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		payload = fmt.Sprintf("code=%d msg=%s", apiErr.Code, apiErr.Message)
	}
	return &market.SourceUnavailableError{Provider: "binance", Payload: payload, Err: err}
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
