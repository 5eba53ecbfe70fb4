package ui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"playreviews/pkg/logger"
)

const (
	barFilled = "█"
	barEmpty  = "░"
)

// ProgressSink receives progress updates from long running work.
// fraction is in [0, 1].
type ProgressSink interface {
	Report(fraction float64, message string)
}

// NopSink discards progress updates
type NopSink struct{}

func (NopSink) Report(float64, string) {}

// LogSink forwards progress updates to a logger at debug level
type LogSink struct {
	Logger logger.Logger
}

func (s LogSink) Report(fraction float64, message string) {
	l := s.Logger
	if l == nil {
		l = logger.GetLogger()
	}
	l.DebugWithFields(message, map[string]interface{}{
		"progress": fmt.Sprintf("%.0f%%", clamp(fraction)*100),
	})
}

// ProgressBar draws a single self-overwriting progress line
type ProgressBar struct {
	mu        sync.Mutex
	out       io.Writer
	label     string
	width     int
	startTime time.Time
	lastLen   int
	done      bool
}

// NewProgressBar creates a progress bar writing to out. The bar width follows
// the terminal width when out is a terminal.
func NewProgressBar(out io.Writer, label string) *ProgressBar {
	width := terminalWidth(out, 80) / 4
	if width < 10 {
		width = 10
	}
	if width > 40 {
		width = 40
	}
	return &ProgressBar{
		out:       out,
		label:     label,
		width:     width,
		startTime: time.Now(),
	}
}

// Report redraws the bar
func (p *ProgressBar) Report(fraction float64, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return
	}
	line := p.render(fraction, message)
	pad := ""
	if n := p.lastLen - len([]rune(line)); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.lastLen = len([]rune(line))
	fmt.Fprintf(p.out, "\r%s%s", line, pad)
}

// Complete ends the progress line
func (p *ProgressBar) Complete(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return
	}
	p.done = true
	fmt.Fprintf(p.out, "\r%s\n", p.render(1, message))
}

func (p *ProgressBar) render(fraction float64, message string) string {
	fraction = clamp(fraction)
	filled := int(math.Round(fraction * float64(p.width)))
	bar := strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, p.width-filled)

	line := fmt.Sprintf("[%s] %3.0f%%", bar, fraction*100)
	if p.label != "" {
		line = Cyan(p.label) + " " + line
	}
	if message != "" {
		line += " • " + message
	}
	return line + " • " + formatDuration(time.Since(p.startTime))
}

func clamp(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
