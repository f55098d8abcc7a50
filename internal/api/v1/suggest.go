package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"proforma/internal/parser"
	"proforma/internal/suggest"
)

// SuggestRequest 表头映射建议请求
type SuggestRequest struct {
	Headers   []string `json:"headers" binding:"required"`
	Threshold float64  `json:"threshold"`
	AI        bool     `json:"ai"`
}

// SuggestResponse 模糊匹配结果 + 可选的 AI 建议（仅供人工确认）
type SuggestResponse struct {
	Mappings []parser.HeaderMapping `json:"mappings"`
	AI       []suggest.Suggestion   `json:"ai"`
	AIError  string                 `json:"aiError,omitempty"`
}

// Suggest 表头映射建议
// POST /api/suggest
func (h *Handler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	mapper := h.mapper
	if req.Threshold > 0 {
		mapper = parser.NewHeaderMapper(nil, nil, req.Threshold)
	}
	resp := SuggestResponse{Mappings: mapper.Map(req.Headers), AI: []suggest.Suggestion{}}

	if req.AI && h.suggester.Enabled() {
		pending := []string{}
		for _, m := range resp.Mappings {
			if m.Status != parser.MappingAuto && m.Header != "" {
				pending = append(pending, m.Header)
			}
		}
		ai, err := h.suggester.Suggest(c.Request.Context(), pending, nil)
		resp.AI = ai
		if err != nil {
			resp.AIError = err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}
