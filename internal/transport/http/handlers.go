package analysishttp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kabuscope/internal/analyze"
	"kabuscope/internal/repair"
	"kabuscope/internal/trade"
	"kabuscope/internal/visual"
)

// 上传文件的大小上限（32MB）。
const maxUploadBytes = 32 << 20

// handleAnalyze 接收 multipart CSV 与可选 options JSON，跑完整流水线。
func (s *Server) handleAnalyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件字段 file"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "文件过大"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var params analyze.Params
	if optionsRaw := strings.TrimSpace(c.PostForm("options")); optionsRaw != "" {
		if err := validateOptions(optionsRaw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "options 不合法: " + err.Error()})
			return
		}
		if err := json.Unmarshal([]byte(optionsRaw), &params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "options 解析失败: " + err.Error()})
			return
		}
	}

	report, err := s.svc.Analyze(c.Request.Context(), raw, params)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, repair.ErrEncodingFailure), errors.Is(err, trade.ErrSchemaMismatch):
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.cacheReport(report)
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleReport(c *gin.Context) {
	report, ok := s.cachedReport(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report 不存在或已过期"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleChart(c *gin.Context) {
	report, ok := s.cachedReport(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report 不存在或已过期"})
		return
	}
	html, err := visual.RenderReportHTML(report)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) handleChartPNG(c *gin.Context) {
	if !s.snapshotEnabled {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "快照功能未开启"})
		return
	}
	report, ok := s.cachedReport(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report 不存在或已过期"})
		return
	}
	html, err := visual.RenderReportHTML(report)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	png, err := visual.SnapshotPNG(c.Request.Context(), html)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "快照失败: " + err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "运行日志未开启"})
		return
	}
	entries, err := s.runs.Recent(c.Request.Context(), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": entries})
}
