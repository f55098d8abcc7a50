package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proforma/internal/importer"
)

func (h *Handler) normalizeOptions(in *sheetInput, operation string) importer.NormalizeOptions {
	return importer.NormalizeOptions{
		Filename:  in.wb.Filename,
		Facility:  in.facility,
		Period:    in.period,
		Overrides: in.overrides,
		Audit:     h.audit,
		Operation: operation,
	}
}

// Normalize 推断布局并提取 12 个月序列
// POST /api/normalize
func (h *Handler) Normalize(c *gin.Context) {
	in, err := h.readInput(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	defer in.close()

	run, err := h.coordinator.Normalize(c.Request.Context(), in.wb, h.normalizeOptions(in, "normalize"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, run.Result)
}

// NormalizeStream 规范化（SSE 进度，最后一个 result 事件携带完整结果）
// POST /api/normalize/stream
func (h *Handler) NormalizeStream(c *gin.Context) {
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

	opts := h.normalizeOptions(in, "normalize")
	opts.Progress = stream.send
	run, err := h.coordinator.Normalize(c.Request.Context(), in.wb, opts)
	if err != nil {
		stream.fail("规范化失败", err)
		return
	}
	stream.send(importer.ProgressEvent{Type: "result", Message: "规范化结果", Data: run.Result})
}
