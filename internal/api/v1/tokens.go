package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"proforma/internal/importer"
)

// Budget 预算对比 token
// POST /api/budget  multipart: file, statements(可选)
func (h *Handler) Budget(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	if !isMultipart(c) {
		h.abortWithError(c, fmt.Errorf("%w: multipart file required", errMissingInput))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		h.abortWithError(c, uploadError("file", err))
		return
	}
	wb, err := openUpload(fh)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	defer wb.Close()

	statements, err := optionalUpload(c, "statements")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if statements != nil {
		defer statements.Close()
	}

	res, err := importer.BudgetTokens(wb, statements, h.coordinator.Scan())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	h.logger.Info("budget tokens extracted", "file", fh.Filename, "tokens", len(res.Tokens), "missing", len(res.Missing))
	c.JSON(http.StatusOK, res.Tokens)
}

// Aging 账龄 token
// POST /api/aging  multipart: file
func (h *Handler) Aging(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	if !isMultipart(c) {
		h.abortWithError(c, fmt.Errorf("%w: multipart file required", errMissingInput))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		h.abortWithError(c, uploadError("file", err))
		return
	}
	wb, err := openUpload(fh)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	defer wb.Close()

	res, err := importer.AgingTokens(wb, h.coordinator.Scan())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Tokens)
}
