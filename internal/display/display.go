// Package display renders ethlog query results and fleet diagnostics
// for the terminal: colorized status tables for health and consistency
// checks, and plain formatters for blocks, transactions, and log
// segments.
package display

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// Colors for status indicators.
var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// formatStatus colorizes an endpoint status string.
func formatStatus(status string) string {
	switch status {
	case "UP":
		return green(status)
	case "SLOW":
		return yellow(status)
	case "DEGRADED":
		return yellow(status)
	case "DOWN":
		return red(status)
	default:
		return status
	}
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "—"
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func formatSuccessRate(rate float64) string {
	s := fmt.Sprintf("%.0f%%", rate)
	switch {
	case rate >= 90:
		return green(s)
	case rate >= 50:
		return yellow(s)
	default:
		return red(s)
	}
}
