package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"proforma/internal/exporter"
	"proforma/internal/store"
)

// TemplateStatus 模板来源与可用性
type TemplateStatus struct {
	Source    exporter.TemplateSource `json:"source"`
	Available bool                    `json:"available"`
}

// StatusResponse 系统状态响应
type StatusResponse struct {
	Version        string         `json:"version"`
	Template       TemplateStatus `json:"template"`
	ReportTemplate TemplateStatus `json:"reportTemplate"`
	AIEnabled      bool           `json:"aiEnabled"`
	AuditEnabled   bool           `json:"auditEnabled"`
	TotalRuns      int            `json:"totalRuns"`
	ProvenanceRows int            `json:"provenanceRows"`
	LastRunTime    string         `json:"lastRunTime"`
	LastFacility   string         `json:"lastFacility"`
	LastPeriod     string         `json:"lastPeriod"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Version:      Version,
		AIEnabled:    h.suggester.Enabled(),
		AuditEnabled: h.audit,
	}
	resp.Template.Source, resp.Template.Available = exporter.TemplateAvailable(h.templatePath)
	resp.ReportTemplate.Source, resp.ReportTemplate.Available = exporter.ReportTemplateAvailable(h.reports.TemplatePath())

	if h.store != nil {
		if n, err := h.store.CountImportLogs(); err == nil {
			resp.TotalRuns = n
		}
		if n, err := h.store.CountProvenance(); err == nil {
			resp.ProvenanceRows = n
		}
		if logs, err := h.store.ListImportLogs(1); err == nil && len(logs) > 0 {
			resp.LastRunTime = logs[0].CreatedAt.Format("2006-01-02 15:04:05")
		}
		if facility, period, err := h.store.GetLastPeriod(); err == nil {
			resp.LastFacility, resp.LastPeriod = facility, period
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListRuns 最近的运行记录
// GET /api/runs?limit=20
func (h *Handler) ListRuns(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []*store.ImportLog{}})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	logs, err := h.store.ListImportLogs(limit)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": logs})
}

// GetRun 单次运行的 sheet 记录与决策记录
// GET /api/runs/:runId
func (h *Handler) GetRun(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未启用审计记录"})
		return
	}
	log, err := h.store.GetImportLog(c.Param("runId"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "运行记录不存在"})
		return
	}
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	sheets, err := h.store.ListSheetMeta(log.ID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	prov, err := h.store.ListProvenance(log.ID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": log, "sheets": sheets, "provenance": prov})
}

// ListPeriods 按物业、期间汇总
// GET /api/periods
func (h *Handler) ListPeriods(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"periods": []store.PeriodStat{}})
		return
	}
	periods, err := h.store.ListPeriods()
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"periods": periods})
}
