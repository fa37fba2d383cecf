package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"klinesync/internal/market"
	"klinesync/internal/store"

	sqlite3 "modernc.org/sqlite"
)

// sqlite 扩展错误码：主键/唯一约束冲突。
const (
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067
)

var tableNamePattern = regexp.MustCompile(`^[A-Z0-9]+_[a-z0-9]+$`)

// Store 单个 sqlite 文件承载全部序列，每条 (symbol, interval) 一张表。
type Store struct {
	path string
	db   *sql.DB
}

var _ store.SeriesStore = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{path: path, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func tableOf(key market.SeriesKey) (string, error) {
	table := key.TableName()
	if !tableNamePattern.MatchString(table) {
		return "", fmt.Errorf("invalid series table name: %q", table)
	}
	return table, nil
}

// EnsureSeries 幂等建表，表结构与序列无关，主键为开盘时间。
func (s *Store) EnsureSeries(ctx context.Context, key market.SeriesKey) error {
	table, err := tableOf(key)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		open_time   INTEGER PRIMARY KEY,
		open        REAL NOT NULL,
		high        REAL NOT NULL,
		low         REAL NOT NULL,
		close       REAL NOT NULL,
		volume      REAL NOT NULL,
		inserted_at INTEGER NOT NULL DEFAULT (strftime('%%s','now') * 1000)
	)`, table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ensure series %s: %w", key, err)
	}
	return nil
}

// ExistingOpenTimes 返回区间内已有的 open_time（升序）。
func (s *Store) ExistingOpenTimes(ctx context.Context, key market.SeriesKey, rng market.DateRange) ([]int64, error) {
	table, err := tableOf(key)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT open_time FROM %q WHERE open_time BETWEEN ? AND ? ORDER BY open_time`, table)
	rows, err := s.db.QueryContext(ctx, query, rng.StartMs(), rng.EndMs())
	if err != nil {
		return nil, fmt.Errorf("load open times %s: %w", key, err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// WriteCandles 批量插入 K 线；空切片直接返回。
// 不做去重：重复 open_time 以 ErrDuplicateKey 上抛，交由调用方定位逻辑缺陷。
func (s *Store) WriteCandles(ctx context.Context, key market.SeriesKey, candles []market.Candle) (int, error) {
	if len(candles) == 0 {
		return 0, nil
	}
	table, err := tableOf(key)
	if err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %q (open_time, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()
	count := 0
	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			_ = tx.Rollback()
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("write %s open_time=%d: %w", key, c.OpenTime, store.ErrDuplicateKey)
			}
			return 0, fmt.Errorf("write %s: %w", key, err)
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// ListSeries 枚举序列表名，keyword 匹配不区分大小写。
func (s *Store) ListSeries(ctx context.Context, keyword string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	keyword = strings.ToUpper(strings.TrimSpace(keyword))
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if !tableNamePattern.MatchString(name) {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToUpper(name), keyword) {
			continue
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// SeriesRange 返回表内最早/最晚开盘时间与行数。
func (s *Store) SeriesRange(ctx context.Context, table string) (store.SeriesRange, error) {
	if !tableNamePattern.MatchString(table) {
		return store.SeriesRange{}, fmt.Errorf("invalid series table name: %q", table)
	}
	query := fmt.Sprintf(
		`SELECT COALESCE(MIN(open_time), 0), COALESCE(MAX(open_time), 0), COUNT(1) FROM %q`, table)
	row := s.db.QueryRowContext(ctx, query)
	var r store.SeriesRange
	if err := row.Scan(&r.MinTime, &r.MaxTime, &r.Rows); err != nil {
		return store.SeriesRange{}, fmt.Errorf("series range %s: %w", table, err)
	}
	return r, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == codeConstraintPrimaryKey || code == codeConstraintUnique
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
