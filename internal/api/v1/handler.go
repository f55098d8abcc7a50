package v1

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"proforma/internal/exporter"
	"proforma/internal/importer"
	"proforma/internal/parser"
	"proforma/internal/store"
	"proforma/internal/suggest"
)

// Version 服务版本（状态接口展示）
var Version = "dev"

// Options 处理器依赖
type Options struct {
	Store               *store.Store
	Scan                parser.ScanOptions
	TemplatePath        string
	TemplateSheet       string
	ReportTemplatePath  string
	ConfidenceThreshold float64
	Audit               bool
	MaxUploadBytes      int64
	Suggester           *suggest.Suggester
	Logger              *slog.Logger
}

// Handler V1 API 处理器
type Handler struct {
	store        *store.Store
	coordinator  *importer.Coordinator
	exporter     *exporter.Exporter
	reports      *exporter.ReportRenderer
	suggester    *suggest.Suggester
	mapper       *parser.HeaderMapper
	templatePath string
	audit        bool
	maxUpload    int64
	downloads    *exportDownloadStore
	logger       *slog.Logger
}

// NewHandler 创建 V1 API 处理器；Store 为空时不写审计
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Handler{
		store:        opts.Store,
		coordinator:  importer.NewCoordinator(opts.Store, opts.Scan, logger.With("component", "importer")),
		exporter:     exporter.NewExporter(opts.TemplatePath, opts.TemplateSheet, opts.Scan, logger.With("component", "exporter")),
		reports:      exporter.NewReportRenderer(opts.ReportTemplatePath),
		suggester:    opts.Suggester,
		mapper:       parser.NewHeaderMapper(nil, nil, opts.ConfidenceThreshold),
		templatePath: opts.TemplatePath,
		audit:        opts.Audit && opts.Store != nil,
		maxUpload:    maxUpload,
		downloads:    newExportDownloadStore(),
		logger:       logger,
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	router.GET("/runs", h.ListRuns)
	router.GET("/runs/:runId", h.GetRun)
	router.GET("/periods", h.ListPeriods)

	// 规范化
	router.POST("/normalize", h.Normalize)
	router.POST("/normalize/stream", h.NormalizeStream)
	router.POST("/suggest", h.Suggest)

	// 模板回写
	router.POST("/export", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)

	// 报告 token
	router.POST("/budget", h.Budget)
	router.POST("/aging", h.Aging)
	router.POST("/report", h.Report)
}
