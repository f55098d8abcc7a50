package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"proforma/internal/parser"
	"proforma/internal/service/excel"
)

var (
	errMissingInput = errors.New("missing input")
	errBadRequest   = errors.New("bad request")
	errTooLarge     = errors.New("upload too large")
)

// statusFor 错误到 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errMissingInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, excel.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, excel.ErrWorkbookUnreadable), errors.Is(err, excel.ErrNoSheets):
		return http.StatusBadRequest
	case errors.Is(err, parser.ErrLayoutUnresolved), errors.Is(err, parser.ErrHeaderRowNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, errTooLarge):
		return "上传文件过大"
	case errors.Is(err, errMissingInput):
		return "未提供工作簿或网格数据"
	case errors.Is(err, excel.ErrUnsupportedFormat):
		return "不支持的文件格式"
	case errors.Is(err, excel.ErrWorkbookUnreadable):
		return "无法读取工作簿"
	case errors.Is(err, excel.ErrNoSheets):
		return "工作簿中没有 sheet"
	case errors.Is(err, parser.ErrLayoutUnresolved):
		return "无法推断模板布局"
	case errors.Is(err, parser.ErrHeaderRowNotFound):
		return "未找到表头行"
	default:
		return "处理失败"
	}
}

// abortWithError 统一错误响应：{error, detail}
func (h *Handler) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": messageFor(err), "detail": err.Error()})
}
