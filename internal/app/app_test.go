package app

import (
	"testing"
	"time"

	"klinesync/internal/store/runlog"

	"github.com/stretchr/testify/assert"
)

func TestFormatRun(t *testing.T) {
	started := time.Date(2021, 1, 1, 10, 0, 0, 0, time.UTC)
	row := runlog.SyncRunModel{
		Symbol:     "BTCUSDT",
		Interval:   "1d",
		DateFrom:   "2021-01-01",
		DateTo:     "2021-01-03",
		Fetched:    3,
		Written:    2,
		Status:     "done",
		StartedAt:  started,
		FinishedAt: started.Add(1250 * time.Millisecond),
	}
	line := formatRun(row)
	assert.Contains(t, line, "2021-01-01 10:00:00")
	assert.Contains(t, line, "BTCUSDT@1d")
	assert.Contains(t, line, "2021-01-01~2021-01-03")
	assert.Contains(t, line, "done")
	assert.Contains(t, line, "拉取=3")
	assert.Contains(t, line, "写入=2")
	assert.NotContains(t, line, "err=")
}

func TestFormatRunWithError(t *testing.T) {
	row := runlog.SyncRunModel{
		Symbol:   "ETHUSDT",
		Interval: "1w",
		Status:   "failed",
		Error:    "binance 数据源不可用",
	}
	line := formatRun(row)
	assert.Contains(t, line, "failed")
	assert.Contains(t, line, "err=binance 数据源不可用")
}
