package utils

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// LogInfo prints an informational line in yellow.
func LogInfo(format string, v ...interface{}) {
	color.Yellow("[INFO] %s", fmt.Sprintf(format, v...))
}

// LogSuccess prints a completed-action line in green.
func LogSuccess(format string, v ...interface{}) {
	color.Green("[OK] %s", fmt.Sprintf(format, v...))
}

// LogWarn prints an expected-but-notable line in magenta.
func LogWarn(format string, v ...interface{}) {
	color.Magenta("[WARN] %s", fmt.Sprintf(format, v...))
}

// LogError prints an error line in red.
func LogError(format string, v ...interface{}) {
	color.Red("[ERROR] %s", fmt.Sprintf(format, v...))
}

// LogDebug prints a debug line in cyan.
func LogDebug(format string, v ...interface{}) {
	color.Cyan("[DEBUG] %s", fmt.Sprintf(format, v...))
}

// LogRequest prints one served HTTP request.
func LogRequest(method, path, ip string, status int, elapsed time.Duration) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %s %s from %s -> %d (%s)", timestamp, method, path, ip, status, elapsed.Round(time.Microsecond))
	switch {
	case status >= 500:
		color.Red("%s", line)
	case status >= 400:
		color.Magenta("%s", line)
	default:
		color.Yellow("%s", line)
	}
}
