package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"go.uber.org/zap"

	"carrito-cli/internal/dashboard"
	"carrito-cli/internal/timefmt"
)

var sparks = []rune("▁▂▃▄▅▆▇█")

// Terminal renders page output as plain lines and tables on a writer.
type Terminal struct {
	out    io.Writer
	logger *zap.Logger

	mu    sync.Mutex
	texts map[dashboard.Field]string
	busy  map[string]bool
}

func NewTerminal(out io.Writer, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminal{
		out:    out,
		logger: logger,
		texts:  make(map[dashboard.Field]string),
		busy:   make(map[string]bool),
	}
}

// SetText prints the field when its value changes. Empty text shows the placeholder.
func (t *Terminal) SetText(field dashboard.Field, text string) {
	if strings.TrimSpace(text) == "" {
		text = timefmt.Placeholder
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.texts[field]; ok && prev == text {
		return
	}
	t.texts[field] = text
	fmt.Fprintf(t.out, "%s: %s\n", label(field), text)
}

func (t *Terminal) SetBusy(control string, busy bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if busy {
		t.busy[control] = true
		fmt.Fprintf(t.out, "... %s\n", control)
	} else {
		delete(t.busy, control)
	}
	t.logger.Debug("control", zap.String("control", control), zap.Bool("busy", busy))
}

func (t *Terminal) Toast(level dashboard.Level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "[%s] %s\n", strings.ToUpper(string(level)), msg)

	fields := []zap.Field{zap.String("level", string(level)), zap.String("message", msg)}
	if level == dashboard.LevelDanger {
		t.logger.Warn("toast", fields...)
		return
	}
	t.logger.Debug("toast", fields...)
}

func (t *Terminal) RenderTable(table string, header []string, rows [][]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "== %s ==\n", table)
	w := tabwriter.NewWriter(t.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	rule := make([]string, len(header))
	for i, h := range header {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(rule, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	w.Flush()
}

// RenderSeries draws points oldest to newest as a one-line sparkline.
func (t *Terminal) RenderSeries(series string, points []dashboard.Point) {
	line := Sparkline(points)
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s %s\n", series, line)
}

// Text returns the last value shown for field.
func (t *Terminal) Text(field dashboard.Field) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.texts[field]
}

// Busy lists the controls with a request in flight.
func (t *Terminal) Busy() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.busy))
	for c := range t.busy {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Summary prints every known field, sorted by name.
func (t *Terminal) Summary() {
	t.mu.Lock()
	defer t.mu.Unlock()

	fields := make([]string, 0, len(t.texts))
	for f := range t.texts {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	w := tabwriter.NewWriter(t.out, 0, 0, 3, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(w, "%s\t%s\n", label(dashboard.Field(f)), t.texts[dashboard.Field(f)])
	}
	w.Flush()
}

// Sparkline scales point values onto block characters. Points arrive newest
// first and are drawn oldest first.
func Sparkline(points []dashboard.Point) string {
	if len(points) == 0 {
		return timefmt.Placeholder
	}
	lo, hi := points[0].Value, points[0].Value
	for _, p := range points {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	var b strings.Builder
	for i := len(points) - 1; i >= 0; i-- {
		idx := 0
		if hi > lo {
			idx = int((points[i].Value - lo) / (hi - lo) * float64(len(sparks)-1))
		}
		b.WriteRune(sparks[idx])
	}
	return b.String()
}

func label(f dashboard.Field) string {
	return strings.ToUpper(strings.ReplaceAll(string(f), "_", " "))
}
