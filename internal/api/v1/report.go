package v1

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"proforma/internal/exporter"
	"proforma/internal/importer"
	"proforma/internal/service/excel"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// ReportRequest JSON 形式：token 取值可以是数字（按后缀格式化）或已格式化的字符串
type ReportRequest struct {
	Facility string         `json:"facility"`
	Period   string         `json:"period"`
	Tokens   map[string]any `json:"tokens" binding:"required"`
}

// Report 生成业主报告
// POST /api/report  JSON {tokens} 或 multipart: file, budget, aging, statements
func (h *Handler) Report(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	var (
		tokens           map[string]string
		facility, period string
		err              error
	)
	if isMultipart(c) {
		tokens, facility, period, err = h.reportTokensFromUploads(c)
	} else {
		var req ReportRequest
		if err = c.ShouldBindJSON(&req); err != nil {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		tokens, facility, period = exporter.FormatValues(req.Tokens), req.Facility, req.Period
	}
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	res, err := h.reports.Render(&buf, tokens)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if len(res.Missing) > 0 {
		c.Header("X-Missing-Tokens", strings.Join(res.Missing, ","))
	}
	c.Header("Content-Disposition", buildContentDisposition(exporter.ReportFilename(facility, period)))
	c.Data(http.StatusOK, pptxContentType, buf.Bytes())
}

// reportTokensFromUploads 合并主工作簿与单独上传的预算、账龄文件中的 token
func (h *Handler) reportTokensFromUploads(c *gin.Context) (map[string]string, string, string, error) {
	src := importer.ReportSources{
		Facility: strings.TrimSpace(c.PostForm("facility")),
		Period:   strings.TrimSpace(c.PostForm("period")),
		Audit:    h.audit,
	}
	defer closeAll(&src)

	for _, f := range []struct {
		field string
		dst   **excel.Workbook
	}{
		{"file", &src.Book},
		{"budget", &src.Budget},
		{"aging", &src.Aging},
		{"statements", &src.Statements},
	} {
		wb, err := optionalUpload(c, f.field)
		if err != nil {
			return nil, "", "", err
		}
		*f.dst = wb
	}
	if src.Book == nil && src.Budget == nil && src.Aging == nil {
		return nil, "", "", errMissingInput
	}

	values, err := h.coordinator.ReportTokens(c.Request.Context(), src)
	if err != nil {
		return nil, "", "", err
	}
	return exporter.FormatTokens(values), src.Facility, src.Period, nil
}

func closeAll(src *importer.ReportSources) {
	for _, wb := range []*excel.Workbook{src.Book, src.Budget, src.Aging, src.Statements} {
		if wb != nil {
			_ = wb.Close()
		}
	}
}
