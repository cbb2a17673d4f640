// Package server 提供摘要服务的 HTTP 接口。
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/fachebot/text-digest/internal/history"
	"github.com/fachebot/text-digest/internal/logger"
	"github.com/fachebot/text-digest/internal/metrics"
	"github.com/fachebot/text-digest/internal/summarizer"
	"github.com/gin-gonic/gin"
)

// Summarizer 摘要流水线
type Summarizer interface {
	Summarize(ctx context.Context, req summarizer.Request) (*summarizer.Result, error)
}

// FileReader 读取上传文件
type FileReader interface {
	Read(filename, contentType string, r io.Reader) (string, error)
}

// HistoryReader 查询运行记录
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]*history.Run, error)
}

// ModelInfo /api/model-info 中与运行时相关的部分
type ModelInfo struct {
	Available         bool
	Provider          string
	TokenizerStrategy string
	SegmenterStrategy string
}

type Server struct {
	config  *config.Config
	engine  *gin.Engine
	http    *http.Server
	service Summarizer
	files   FileReader
	history HistoryReader
	metrics *metrics.Metrics
	info    ModelInfo
}

// New 创建服务器并注册路由，history 为 nil 时 /api/history 返回空列表
func New(cfg *config.Config, service Summarizer, files FileReader, history HistoryReader, m *metrics.Metrics, info ModelInfo) (*Server, error) {
	s := &Server{
		config:  cfg,
		engine:  gin.New(),
		service: service,
		files:   files,
		history: history,
		metrics: m,
		info:    info,
	}

	limit, err := rateLimitMiddleware(cfg.Server.RateLimit)
	if err != nil {
		return nil, err
	}

	s.engine.Use(gin.Recovery(), requestLogger(), corsMiddleware(cfg.Server.AllowedOrigins))
	s.engine.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/metrics", gin.WrapH(m.Handler()))

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/model-info", s.handleModelInfo)
	api.GET("/history", s.handleHistory)

	summarize := api.Group("")
	if limit != nil {
		summarize.Use(limit)
	}
	summarize.POST("/summarize", s.handleSummarize)
	summarize.POST("/summarize-file", s.handleSummarizeFile)

	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler 供测试直接调用
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start 在后台监听，监听失败时记录致命错误
func (s *Server) Start() {
	go func() {
		logger.Infof("[Server] HTTP 服务已启动: %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("[Server] HTTP 服务异常退出: %v", err)
		}
	}()
}

// Shutdown 等待进行中的请求结束
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭 HTTP 服务失败: %w", err)
	}
	logger.Infof("[Server] HTTP 服务已停止")
	return nil
}
