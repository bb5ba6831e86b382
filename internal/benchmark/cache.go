package benchmark

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"kabuscope/internal/logger"
	"kabuscope/internal/market"
)

const dayLayout = "2006-01-02"

// CachedSource 在本地 sqlite 里缓存基准日线，避免同一区间反复外网拉取。
type CachedSource struct {
	inner Source
	db    *sql.DB
}

// NewCachedSource 打开（必要时创建）缓存库并包装内层数据源。
func NewCachedSource(inner Source, path string) (*CachedSource, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner source 不能为空")
	}
	if path == "" {
		return nil, fmt.Errorf("cache path 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &CachedSource{inner: inner, db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS bars (
  symbol TEXT NOT NULL,
  day    TEXT NOT NULL,
  close  REAL NOT NULL,
  PRIMARY KEY (symbol, day)
);
CREATE TABLE IF NOT EXISTS coverage (
  symbol    TEXT PRIMARY KEY,
  min_day   TEXT NOT NULL,
  max_day   TEXT NOT NULL,
  synced_at INTEGER NOT NULL
);`)
	return err
}

func (c *CachedSource) Close() error { return c.db.Close() }

func (c *CachedSource) Name() string { return c.inner.Name() + "+cache" }

// Fetch 先查覆盖区间；命中直接回放缓存，未命中走内层源并回写。
// 内层拉取失败但缓存已覆盖请求区间时仍按失败处理（调用方要求时再放宽）。
func (c *CachedSource) Fetch(ctx context.Context, req Request) ([]market.PriceBar, error) {
	start := market.Day(req.Start)
	end := market.Day(req.End)
	if covered, err := c.isCovered(ctx, req.Symbol, start, end); err == nil && covered {
		logger.Debugf("benchmark: %s %s~%s 命中缓存", req.Symbol, start.Format(dayLayout), end.Format(dayLayout))
		return c.readBars(ctx, req.Symbol, start, end)
	}
	bars, err := c.inner.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.writeBars(ctx, req.Symbol, start, end, bars); err != nil {
		logger.Warnf("benchmark: 缓存写入失败: %v", err)
	}
	return bars, nil
}

func (c *CachedSource) isCovered(ctx context.Context, symbol string, start, end time.Time) (bool, error) {
	var minDay, maxDay string
	err := c.db.QueryRowContext(ctx,
		`SELECT min_day, max_day FROM coverage WHERE symbol = ?`, symbol,
	).Scan(&minDay, &maxDay)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return minDay <= start.Format(dayLayout) && maxDay >= end.Format(dayLayout), nil
}

func (c *CachedSource) readBars(ctx context.Context, symbol string, start, end time.Time) ([]market.PriceBar, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT day, close FROM bars WHERE symbol = ? AND day BETWEEN ? AND ? ORDER BY day`,
		symbol, start.Format(dayLayout), end.Format(dayLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []market.PriceBar
	for rows.Next() {
		var day string
		var closePrice float64
		if err := rows.Scan(&day, &closePrice); err != nil {
			return nil, err
		}
		d, err := time.ParseInLocation(dayLayout, day, time.UTC)
		if err != nil {
			continue
		}
		out = append(out, market.PriceBar{Date: d, Close: closePrice})
	}
	return out, rows.Err()
}

func (c *CachedSource) writeBars(ctx context.Context, symbol string, start, end time.Time, bars []market.PriceBar) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, b := range bars {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bars (symbol, day, close) VALUES (?, ?, ?)
			 ON CONFLICT(symbol, day) DO UPDATE SET close = excluded.close`,
			symbol, b.Date.Format(dayLayout), b.Close); err != nil {
			return err
		}
	}
	// 覆盖区间只扩不缩。
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO coverage (symbol, min_day, max_day, synced_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET
		   min_day = MIN(coverage.min_day, excluded.min_day),
		   max_day = MAX(coverage.max_day, excluded.max_day),
		   synced_at = excluded.synced_at`,
		symbol, start.Format(dayLayout), end.Format(dayLayout), time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}
