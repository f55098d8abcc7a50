package exporter

// ProgressEvent 导出进度（SSE 与 CLI 进度条共用）
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
}

// ProgressFunc 进度回调
type ProgressFunc func(ProgressEvent)

func reportProgress(progress ProgressFunc, percent int, stage string) {
	if progress == nil {
		return
	}
	progress(ProgressEvent{Percent: min(max(percent, 0), 100), Stage: stage})
}
