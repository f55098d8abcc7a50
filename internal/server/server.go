package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	v1 "proforma/internal/api/v1"
	"proforma/internal/config"
	"proforma/internal/store"
	"proforma/internal/suggest"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	v1     *v1.Handler
	logger *slog.Logger
}

// NewServer 创建服务器；打开审计库失败时返回错误
func NewServer(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	var sqliteStore *store.Store
	if cfg.Data.AuditLog {
		dataDir, err := config.EnsureDataDir(cfg)
		if err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
		sqliteStore, err = store.New(filepath.Join(dataDir, "proforma.db"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	handler := v1.NewHandler(v1.Options{
		Store:               sqliteStore,
		Scan:                cfg.ScanOptions(),
		TemplatePath:        cfg.Excel.TemplatePath,
		TemplateSheet:       cfg.Excel.SheetName,
		ReportTemplatePath:  cfg.Report.TemplatePath,
		ConfidenceThreshold: cfg.ConfidenceThreshold(),
		Audit:               cfg.Data.AuditLog,
		MaxUploadBytes:      cfg.Server.MaxUploadMB << 20,
		Suggester:           newSuggester(ctx, cfg, logger),
		Logger:              logger,
	})

	s := &Server{
		router: gin.Default(),
		store:  sqliteStore,
		v1:     handler,
		logger: logger,
	}
	s.setupRoutes()
	return s, nil
}

// newSuggester AI 未启用或初始化失败时返回无后端的 Suggester（Suggest 恒为空）
func newSuggester(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) *suggest.Suggester {
	logger = config.Component(logger, "suggest")
	if !cfg.AIEnabled() {
		return suggest.NewSuggester(nil, cfg.AITimeout(), logger)
	}
	gen, err := suggest.NewGeminiGenerator(ctx, cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		logger.Warn("AI suggestion disabled", "error", err)
		return suggest.NewSuggester(nil, cfg.AITimeout(), logger)
	}
	return suggest.NewSuggester(gen, cfg.AITimeout(), logger)
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Missing-Tokens")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// /api 与 /api/v1 同一套路由
	s.v1.RegisterRoutes(s.router.Group("/api"))
	s.v1.RegisterRoutes(s.router.Group("/api/v1"))

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": v1.Version})
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "接口不存在"})
	})
}

// Handler 路由（测试用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，ctx 取消时优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close 释放审计库
func (s *Server) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
