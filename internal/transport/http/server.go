package analysishttp

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"kabuscope/internal/analyze"
	"kabuscope/internal/logger"
	"kabuscope/internal/store/runlog"
)

// Server 提供分析相关的 HTTP API。
type Server struct {
	addr            string
	svc             *analyze.Service
	runs            *runlog.Store
	router          *gin.Engine
	snapshotEnabled bool

	mu      sync.Mutex
	reports map[string]*analyze.Report
	order   []string
}

// 内存报告缓存的上限，超过后按先进先出淘汰。
const maxCachedReports = 32

// Config 描述 HTTP Server 的依赖。
type Config struct {
	Addr            string
	Svc             *analyze.Service
	Runs            *runlog.Store // 可为 nil
	SnapshotEnabled bool
}

// NewServer 构建分析 HTTP Server。
func NewServer(cfg Config) (*Server, error) {
	if cfg.Svc == nil {
		return nil, errors.New("service 不能为空")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:            cfg.Addr,
		svc:             cfg.Svc,
		runs:            cfg.Runs,
		router:          router,
		snapshotEnabled: cfg.SnapshotEnabled,
		reports:         make(map[string]*analyze.Report),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := s.router.Group("/api")
	api.POST("/analyze", s.handleAnalyze)
	api.GET("/reports/:id", s.handleReport)
	api.GET("/reports/:id/chart", s.handleChart)
	api.GET("/reports/:id/chart.png", s.handleChartPNG)
	api.GET("/runs", s.handleRuns)
}

// Run 启动服务并在 ctx 结束时优雅退出。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http: 监听 %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler 暴露底层路由（测试与嵌入用）。
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) cacheReport(report *analyze.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.ID]; !ok {
		s.order = append(s.order, report.ID)
	}
	s.reports[report.ID] = report
	for len(s.order) > maxCachedReports {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.reports, oldest)
	}
}

func (s *Server) cachedReport(id string) (*analyze.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	return r, ok
}
