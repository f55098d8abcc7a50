package v1

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"proforma/internal/model"
	"proforma/internal/service/excel"
)

// sheetInput 一次请求归一后的输入
type sheetInput struct {
	wb        *excel.Workbook
	facility  string
	period    string
	overrides map[string]model.SheetType
}

func (in *sheetInput) close() {
	if in != nil && in.wb != nil {
		_ = in.wb.Close()
	}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// readInput 支持 multipart 的 file 字段与 JSON 的 {sheets} / {grid} 两种形式
func (h *Handler) readInput(c *gin.Context) (*sheetInput, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	if isMultipart(c) {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, uploadError("file", err)
		}
		wb, err := openUpload(fh)
		if err != nil {
			return nil, err
		}
		in := &sheetInput{
			wb:       wb,
			facility: strings.TrimSpace(c.PostForm("facility")),
			period:   strings.TrimSpace(c.PostForm("period")),
		}
		in.overrides = statementOverride(c.PostForm("statementSheet"))
		return in, nil
	}

	var req model.NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit %d bytes", errTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	payloads := req.Payloads()
	if len(payloads) == 0 {
		return nil, errMissingInput
	}
	wb, err := excel.FromPayloads(payloads)
	if err != nil {
		return nil, err
	}
	return &sheetInput{
		wb:        wb,
		facility:  strings.TrimSpace(req.Facility),
		period:    strings.TrimSpace(req.Period),
		overrides: statementOverride(req.StatementSheet),
	}, nil
}

// openUpload 读取上传的工作簿
func openUpload(fh *multipart.FileHeader) (*excel.Workbook, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", excel.ErrWorkbookUnreadable, err)
	}
	defer f.Close()
	return excel.LoadWorkbook(f, fh.Filename)
}

// optionalUpload 可选的附加文件字段；字段不存在时返回 nil
func optionalUpload(c *gin.Context, field string) (*excel.Workbook, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, uploadError(field, err)
	}
	return openUpload(fh)
}

// uploadError 区分超限与字段缺失
func uploadError(field string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit %d bytes", errTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %s field: %v", errMissingInput, field, err)
}

func statementOverride(name string) map[string]model.SheetType {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return map[string]model.SheetType{name: model.SheetTypeStatement}
}
