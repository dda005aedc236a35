package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"carrito-cli/internal/dashboard"
)

func TestTerminalSetTextPrintsChangesOnly(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, zap.NewNop())

	term.SetText(dashboard.FieldLastStatus, "Forward")
	term.SetText(dashboard.FieldLastStatus, "Forward")
	term.SetText(dashboard.FieldObstacle, "")

	assert.Equal(t, "LAST STATUS: Forward\nOBSTACLE: —\n", buf.String())
	assert.Equal(t, "—", term.Text(dashboard.FieldObstacle))
}

func TestTerminalToastAndBusy(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, zap.NewNop())

	term.SetBusy("move:1", true)
	assert.Equal(t, []string{"move:1"}, term.Busy())
	term.SetBusy("move:1", false)
	assert.Empty(t, term.Busy())

	term.Toast(dashboard.LevelDanger, "Failed to send movement: HTTP 500: boom")
	assert.Contains(t, buf.String(), "[DANGER] Failed to send movement: HTTP 500: boom\n")
}

func TestTerminalRenderTable(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, zap.NewNop())

	term.RenderTable("movements", []string{"ID", "STATUS"}, [][]string{{"12", "Forward"}, {"11", "Stop"}})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"== movements ==",
		"ID   STATUS",
		"--   ------",
		"12   Forward",
		"11   Stop",
	}, lines)
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "—", Sparkline(nil))
	assert.Equal(t, "▁▁", Sparkline([]dashboard.Point{{Value: 3}, {Value: 3}}))
	// newest first in, oldest first out
	assert.Equal(t, "▁█", Sparkline([]dashboard.Point{{Value: 5}, {Value: 1}}))
}
