package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/suite"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

const nameWidth = 42

func printSummary(w io.Writer, res *suite.Result) {
	fmt.Fprintln(w)
	if res.Passed > 0 {
		fmt.Fprintf(w, "  %s%d passing%s (%s)\n", color(colorGreen), res.Passed, color(colorReset), formatDuration(res.Duration.Milliseconds()))
	}
	if res.Failed > 0 {
		fmt.Fprintf(w, "  %s%d failing%s\n", color(colorRed), res.Failed, color(colorReset))
	}
	if res.Skipped > 0 {
		fmt.Fprintf(w, "  %s%d skipped%s\n", color(colorCyan), res.Skipped, color(colorReset))
	}
	fmt.Fprintln(w)

	tableWidth := 80
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  %-42s %6s %8s %8s %10s\n", "Scenario", "Status", "Unit", "Attempts", "Duration")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))

	for _, tr := range res.Tests {
		status, statusColor := statusLabel(tr.Status)
		fmt.Fprintf(w, "  %-42s %s%6s%s %8s %8d %10s\n",
			truncate(tr.Name, nameWidth), statusColor, status, color(colorReset),
			tr.Unit, tr.Attempts, formatDuration(tr.Duration.Milliseconds()))
		if tr.Status == core.StatusFailed && tr.Error != "" {
			fmt.Fprintf(w, "    %s╰─%s %s\n", color(colorGray), color(colorReset), firstLine(tr.Error))
		}
	}

	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	totals := fmt.Sprintf("%d/%d", res.Passed, res.Total)
	totalsColor := color(colorGreen)
	if res.Failed > 0 {
		totalsColor = color(colorRed)
	}
	fmt.Fprintf(w, "  %s%-42s%s %s%6s%s %8s %8s %10s\n",
		color(colorBold), "TOTAL", color(colorReset),
		totalsColor, totals, color(colorReset),
		"", "", formatDuration(res.Duration.Milliseconds()))
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
}

func statusLabel(s core.TestStatus) (string, string) {
	switch s {
	case core.StatusFailed:
		return "✗ FAIL", color(colorRed)
	case core.StatusSkipped:
		return "- SKIP", color(colorCyan)
	default:
		return "✓ PASS", color(colorGreen)
	}
}

func truncate(name string, width int) string {
	if len(name) > width {
		return name[:width-3] + "..."
	}
	return name
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
