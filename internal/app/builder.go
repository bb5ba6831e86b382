package app

import (
	"context"
	"fmt"
	"strings"

	"kabuscope/internal/analyze"
	"kabuscope/internal/benchmark"
	kscfg "kabuscope/internal/config"
	cfgloader "kabuscope/internal/config/loader"
	"kabuscope/internal/logger"
	"kabuscope/internal/store/runlog"
	analysishttp "kabuscope/internal/transport/http"
	"kabuscope/internal/visual"
)

// AppBuilder 按配置逐层组装依赖，各构造步骤可被测试替换。
type AppBuilder struct {
	cfg *kscfg.Config

	sourceFn       func(*kscfg.Config) (benchmark.Source, error)
	runLogFn       func(*kscfg.Config) (*runlog.Store, error)
	presetLoaderFn func(*kscfg.Config) (*cfgloader.PresetLoader, error)
	httpFn         func(*kscfg.Config, *analyze.Service, *runlog.Store) (*analysishttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *kscfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:            cfg,
		sourceFn:       buildBenchmarkSource,
		runLogFn:       buildRunLog,
		presetLoaderFn: buildPresetLoader,
		httpFn:         buildHTTPServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	source, err := b.sourceFn(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化基准数据源失败: %w", err)
	}

	runs, err := b.runLogFn(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化运行日志失败: %w", err)
	}

	var recorder analyze.RunRecorder
	if runs != nil {
		recorder = runs
	}
	svc := analyze.New(cfg, source, recorder)

	presets, err := b.presetLoaderFn(cfg)
	if err != nil {
		return nil, fmt.Errorf("加载分析预设失败: %w", err)
	}
	if presets != nil {
		svc.UsePresets(presets)
		presets.Subscribe(func(snap cfgloader.Snapshot) {
			logger.Infof("分析预设已更新: %d 个 (version=%d)", len(snap.Presets), snap.Version)
		})
	}

	if cfg.Visual.SnapshotEnabled {
		if err := visual.EnsureHeadlessAvailable(ctx); err != nil {
			logger.Warnf("快照环境不可用，PNG 导出被禁用: %v", err)
			cfg.Visual.SnapshotEnabled = false
		}
	}

	httpSrv, err := b.httpFn(cfg, svc, runs)
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP 服务失败: %w", err)
	}

	return &App{
		cfg:     cfg,
		svc:     svc,
		httpSrv: httpSrv,
		runs:    runs,
		presets: presets,
		Summary: &StartupSummary{
			Addr:            cfg.App.HTTPAddr,
			Provider:        cfg.Benchmark.Provider,
			Symbol:          cfg.Benchmark.Symbol,
			CacheEnabled:    strings.TrimSpace(cfg.Benchmark.CachePath) != "",
			RunLogEnabled:   runs != nil,
			PresetsEnabled:  presets != nil,
			SnapshotEnabled: cfg.Visual.SnapshotEnabled,
		},
	}, nil
}

func buildBenchmarkSource(cfg *kscfg.Config) (benchmark.Source, error) {
	return benchmark.NewSource(benchmark.Options{
		Provider:  cfg.Benchmark.Provider,
		BaseURL:   cfg.Benchmark.BaseURL,
		CachePath: cfg.Benchmark.CachePath,
	})
}

func buildRunLog(cfg *kscfg.Config) (*runlog.Store, error) {
	if !cfg.RunLog.Enabled {
		return nil, nil
	}
	path := strings.TrimSpace(cfg.RunLog.Path)
	if path == "" {
		return nil, fmt.Errorf("run_log.path 未配置")
	}
	return runlog.Open(path)
}

func buildPresetLoader(cfg *kscfg.Config) (*cfgloader.PresetLoader, error) {
	path := strings.TrimSpace(cfg.Presets.Path)
	if path == "" {
		return nil, nil
	}
	return cfgloader.NewPresetLoader(path)
}

func buildHTTPServer(cfg *kscfg.Config, svc *analyze.Service, runs *runlog.Store) (*analysishttp.Server, error) {
	return analysishttp.NewServer(analysishttp.Config{
		Addr:            cfg.App.HTTPAddr,
		Svc:             svc,
		Runs:            runs,
		SnapshotEnabled: cfg.Visual.SnapshotEnabled,
	})
}

func WithBenchmarkSource(fn func(*kscfg.Config) (benchmark.Source, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.sourceFn = fn
		}
	}
}

func WithRunLog(fn func(*kscfg.Config) (*runlog.Store, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.runLogFn = fn
		}
	}
}

func WithPresetLoader(fn func(*kscfg.Config) (*cfgloader.PresetLoader, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.presetLoaderFn = fn
		}
	}
}

func WithHTTPServer(fn func(*kscfg.Config, *analyze.Service, *runlog.Store) (*analysishttp.Server, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.httpFn = fn
		}
	}
}
