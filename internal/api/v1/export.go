package v1

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"proforma/internal/exporter"
	"proforma/internal/importer"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	downloadTTL     = 10 * time.Minute
)

// export 规范化输入后写入模板
func (h *Handler) export(ctx context.Context, in *sheetInput, progress exporter.ProgressFunc) (*exporter.ExportResult, error) {
	run, err := h.coordinator.Normalize(ctx, in.wb, h.normalizeOptions(in, "export"))
	if err != nil {
		return nil, err
	}
	opts := run.ExportOptions(in.facility, in.period)
	opts.Audit = true
	opts.Progress = progress
	return h.exporter.Export(opts)
}

// Export 导出 Proforma 工作簿
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	in, err := h.readInput(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	defer in.close()

	res, err := h.export(c.Request.Context(), in, nil)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	defer res.File.Close()

	c.Header("Content-Disposition", buildContentDisposition(res.Filename))
	c.Header("Content-Type", xlsxContentType)
	if err := res.File.Write(c.Writer); err != nil {
		h.logger.Error("write export failed", "file", res.Filename, "error", err)
	}
}

// ExportStream 导出（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	in, err := h.readInput(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	defer in.close()

	stream, ok := openEventStream(c)
	if !ok {
		return
	}
	stream.send(importer.ProgressEvent{
		Type:    "start",
		Message: "开始导出",
		Data:    map[string]any{"facility": in.facility, "period": in.period},
	})

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		stream.send(importer.ProgressEvent{
			Type:    "progress",
			Message: p.Stage,
			Data:    map[string]any{"percent": p.Percent},
		})
	}

	res, err := h.export(c.Request.Context(), in, progressFn)
	if err != nil {
		stream.fail("导出失败", err)
		return
	}
	defer res.File.Close()

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("proforma_export_%d_%d.xlsx", time.Now().UnixNano(), os.Getpid()))
	if err := res.File.SaveAs(tempPath); err != nil {
		stream.fail("写入导出文件失败", err)
		_ = os.Remove(tempPath)
		return
	}

	token := h.downloads.put(tempPath, res.Filename, downloadTTL)
	prefix := "/api"
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
		prefix = "/api/v1"
	}

	stream.send(importer.ProgressEvent{
		Type:    "done",
		Message: "导出完成",
		Data: map[string]any{
			"percent":     100,
			"filename":    res.Filename,
			"downloadUrl": fmt.Sprintf("%s/export/download/%s", prefix, token),
			"written":     len(res.Report.Written),
			"skipped":     len(res.Report.Skipped),
		},
	})
}

// DownloadExport 下载导出的文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}
	defer os.Remove(item.filePath)

	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", buildContentDisposition(item.filename))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)
}

// buildContentDisposition ASCII 文件名 + RFC 5987 编码的 filename*
func buildContentDisposition(filename string) string {
	ascii := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", ascii, url.PathEscape(filename))
}
