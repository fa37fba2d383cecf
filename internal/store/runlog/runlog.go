// Package runlog 用 Gorm + SQLite 持久化同步运行记录，供事后排查。
package runlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"klinesync/internal/syncer"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Recorder struct {
	db *gorm.DB
}

var _ syncer.RunRecorder = (*Recorder)(nil)

func NewRecorder(path string) (*Recorder, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("runlog path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&SyncRunModel{}); err != nil {
		return nil, err
	}
	return &Recorder{db: db}, nil
}

func (r *Recorder) Record(ctx context.Context, res syncer.RunResult) error {
	row := toModel(res)
	return r.db.WithContext(ctx).Create(&row).Error
}

// Recent 返回最近的若干条记录（按开始时间倒序）。
func (r *Recorder) Recent(ctx context.Context, limit int) ([]SyncRunModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []SyncRunModel
	err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(res syncer.RunResult) SyncRunModel {
	return SyncRunModel{
		RunID:      res.RunID,
		Symbol:     res.Symbol,
		Interval:   res.Interval,
		DateFrom:   res.DateFrom,
		DateTo:     res.DateTo,
		Fetched:    res.Fetched,
		Written:    res.Written,
		Status:     res.Status,
		Error:      res.Error,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
}
