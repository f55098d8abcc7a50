package util

import (
	"fmt"
	"net"
	"os/exec"
	"runtime"
)

// Open 用系统默认程序打开 URL 或本地文件（导出的 xlsx/pptx）
func Open(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 稳定
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	case "darwin":
		cmd = exec.Command("open", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}

// OpenWithFallback 主方式失败时尝试备选程序
func OpenWithFallback(target string) error {
	err := Open(target)
	if err == nil {
		return nil
	}

	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", target).Start()
	case "linux":
		for _, alt := range []string{"gio", "sensible-browser", "google-chrome", "firefox"} {
			args := []string{target}
			if alt == "gio" {
				args = []string{"open", target}
			}
			if err := exec.Command(alt, args...).Start(); err == nil {
				return nil
			}
		}
	}
	return err
}

// FindAvailablePort 从 startPort 起查找可监听的端口，最多尝试 attempts 个
func FindAvailablePort(startPort, attempts int) (int, error) {
	if attempts <= 0 {
		attempts = 1
	}
	for p := startPort; p < startPort+attempts; p++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", p))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return p, nil
	}
	return 0, fmt.Errorf("no free port in %d-%d", startPort, startPort+attempts-1)
}
