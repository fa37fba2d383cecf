package runlog

import "time"

// SyncRunModel 每条 (symbol, interval) 在一次运行中的同步结果。
type SyncRunModel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	RunID      string    `gorm:"size:64;index"`
	Symbol     string    `gorm:"size:32;index"`
	Interval   string    `gorm:"size:8"`
	DateFrom   string    `gorm:"size:10"`
	DateTo     string    `gorm:"size:10"`
	Fetched    int       `gorm:"not null;default:0"`
	Written    int       `gorm:"not null;default:0"`
	Status     string    `gorm:"size:16;index"`
	Error      string    `gorm:"type:text"`
	StartedAt  time.Time `gorm:"index"`
	FinishedAt time.Time
}

func (SyncRunModel) TableName() string { return "sync_runs" }
