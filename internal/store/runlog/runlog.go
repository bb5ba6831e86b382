package runlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"kabuscope/internal/analyze"
)

// Entry 是一次完成的分析运行的审计记录。
// 只存运行元信息与最终指标 JSON，不保留流水线实体。
type Entry struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	SourceEncoding string         `gorm:"type:varchar(16)" json:"source_encoding"`
	RecordCount    int            `json:"record_count"`
	HasBenchmark   bool           `json:"has_benchmark"`
	Metrics        datatypes.JSON `gorm:"type:json" json:"metrics"`
}

// TableName 指定表名。
func (Entry) TableName() string { return "analysis_runs" }

// Store 基于 gorm + sqlite 的运行日志。
type Store struct {
	db *gorm.DB
}

// Open 打开（必要时创建并迁移）运行日志库。
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("run log path 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("打开运行日志库失败: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("运行日志迁移失败: %w", err)
	}
	return &Store{db: db}, nil
}

// metricsPayload 是 Metrics 列的内容：只挑总结性指标。
type metricsPayload struct {
	Matches    any `json:"matches,omitempty"`
	RegimeSums any `json:"regime_sums,omitempty"`
	Assessment any `json:"assessment,omitempty"`
	Efficiency any `json:"efficiency,omitempty"`
	Warnings   any `json:"warnings,omitempty"`
}

// Record 实现 analyze.RunRecorder。
func (s *Store) Record(ctx context.Context, report *analyze.Report) error {
	payload, err := json.Marshal(metricsPayload{
		Matches:    report.Matches,
		RegimeSums: report.RegimeSums,
		Assessment: report.Assessment,
		Efficiency: report.Efficiency,
		Warnings:   report.Warnings,
	})
	if err != nil {
		return err
	}
	entry := Entry{
		ID:             report.ID,
		SourceEncoding: report.SourceEncoding,
		RecordCount:    report.RecordCount,
		HasBenchmark:   report.HasBenchmark(),
		Metrics:        datatypes.JSON(payload),
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// Recent 返回最近的 limit 条记录（按时间倒序）。
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Entry
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
