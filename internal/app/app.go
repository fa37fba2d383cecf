package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"klinesync/internal/market"
	"klinesync/internal/store/runlog"
	"klinesync/internal/syncer"
)

// Run 执行指定命令：sync 下载缺失数据（默认），report 汇报各序列已存的日期范围，
// runs 列出最近的同步运行记录。
func (a *App) Run(ctx context.Context, command string, args []string) error {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "", "sync":
		return a.runSync(ctx)
	case "report":
		keyword := ""
		if len(args) > 0 {
			keyword = args[0]
		}
		return a.runReport(ctx, keyword)
	case "runs":
		limit := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("runs 的条数参数无效 %q: %w", args[0], err)
			}
			limit = n
		}
		return a.runHistory(ctx, limit)
	default:
		return fmt.Errorf("未知命令 %q（可用: sync, report, runs）", command)
	}
}

func (a *App) runSync(ctx context.Context) error {
	rng, err := market.ParseDateRange(a.cfg.Sync.DateFrom, a.cfg.Sync.DateTo)
	if err != nil {
		return err
	}
	intervals := make([]market.Interval, 0, len(a.cfg.Sync.Intervals))
	for _, raw := range a.cfg.Sync.Intervals {
		iv, err := market.ParseInterval(raw)
		if err != nil {
			return err
		}
		intervals = append(intervals, iv)
	}
	return a.engine.Run(ctx, syncer.Params{
		Symbols:   a.cfg.Sync.Symbols,
		Intervals: intervals,
		Range:     rng,
	})
}

func (a *App) runReport(ctx context.Context, keyword string) error {
	names, err := a.store.ListSeries(ctx, keyword)
	if err != nil {
		return fmt.Errorf("枚举序列失败: %w", err)
	}
	if len(names) == 0 {
		fmt.Println("没有匹配的序列")
		return nil
	}
	for _, name := range names {
		r, err := a.store.SeriesRange(ctx, name)
		if err != nil {
			a.log.Error("读取日期范围失败", "series", name, "err", err)
			continue
		}
		if r.Empty() {
			fmt.Printf("%-24s (空)\n", name)
			continue
		}
		fmt.Printf("%-24s %s ~ %s  %d 行\n", name, r.MinDate(), r.MaxDate(), r.Rows)
	}
	return nil
}

func (a *App) runHistory(ctx context.Context, limit int) error {
	rows, err := a.recorder.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("读取运行日志失败: %w", err)
	}
	if len(rows) == 0 {
		fmt.Println("还没有任何同步记录")
		return nil
	}
	for _, row := range rows {
		fmt.Println(formatRun(row))
	}
	return nil
}

func formatRun(row runlog.SyncRunModel) string {
	line := fmt.Sprintf("%s  %-16s %s~%s  %-6s 拉取=%d 写入=%d 耗时=%s",
		row.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		row.Symbol+"@"+row.Interval,
		row.DateFrom, row.DateTo,
		row.Status, row.Fetched, row.Written,
		row.FinishedAt.Sub(row.StartedAt).Round(10*time.Millisecond))
	if row.Error != "" {
		line += "  err=" + row.Error
	}
	return line
}
