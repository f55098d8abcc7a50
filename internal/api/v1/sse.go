package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"proforma/internal/importer"
)

// eventStream SSE 写入器：data: {json}\n\n
type eventStream struct {
	c       *gin.Context
	flusher http.Flusher
}

func openEventStream(c *gin.Context) (*eventStream, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return nil, false
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	return &eventStream{c: c, flusher: flusher}, true
}

func (s *eventStream) send(event importer.ProgressEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Data == nil {
		event.Data = map[string]any{}
	}
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(s.c.Writer, "data: %s\n\n", b)
	s.flusher.Flush()
}

func (s *eventStream) fail(message string, err error) {
	s.send(importer.ProgressEvent{
		Type:    "error",
		Message: message + ": " + err.Error(),
		Data:    map[string]any{"status": statusFor(err)},
	})
}
