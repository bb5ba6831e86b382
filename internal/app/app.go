package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"kabuscope/internal/analyze"
	kscfg "kabuscope/internal/config"
	cfgloader "kabuscope/internal/config/loader"
	"kabuscope/internal/logger"
	"kabuscope/internal/store/runlog"
	analysishttp "kabuscope/internal/transport/http"
)

// App 负责应用级编排：加载配置→初始化依赖→启动 HTTP 服务。
type App struct {
	cfg     *kscfg.Config
	svc     *analyze.Service
	httpSrv *analysishttp.Server
	runs    *runlog.Store
	presets *cfgloader.PresetLoader
	Summary *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *kscfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动 HTTP 服务，ctx 结束后收尾资源。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.httpSrv == nil {
		return fmt.Errorf("http server not initialized")
	}

	if a.Summary != nil {
		a.Summary.Print()
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpSrv.Run(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	err := group.Wait()
	a.close()
	return err
}

// Service exposes the underlying analyze service (for CLI mode and tests).
func (a *App) Service() *analyze.Service {
	if a == nil {
		return nil
	}
	return a.svc
}

func (a *App) close() {
	if a.presets != nil {
		if err := a.presets.Close(); err != nil {
			logger.Warnf("关闭预设监听失败: %v", err)
		}
	}
	if a.runs != nil {
		if err := a.runs.Close(); err != nil {
			logger.Warnf("关闭运行日志失败: %v", err)
		}
	}
}
