package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConsoleDispatchesUntilQuit(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("move 3 forward\n\nbogus\nmove\nfail\nquit\nmove 9\n")
	c := NewConsole(in, &out, zap.NewNop())

	var got [][]string
	c.Handle("move", Command{
		Usage: "<status> [notes]",
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return ErrUsage
			}
			got = append(got, args)
			return nil
		},
	})
	c.Handle("fail", Command{Run: func(ctx context.Context, args []string) error {
		return fmt.Errorf("wrapped: %w", errors.New("boom"))
	}})

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, [][]string{{"3", "forward"}}, got)
	assert.Contains(t, out.String(), `unknown command "bogus"`)
	assert.Contains(t, out.String(), "usage: move <status> [notes]")
	assert.Contains(t, out.String(), "error: wrapped: boom")
}

func TestConsoleStopsAtEOF(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("help\n"), &out, zap.NewNop())
	c.Handle("refresh", Command{Help: "poll now", Run: func(context.Context, []string) error { return nil }})

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "refresh")
	assert.Contains(t, out.String(), "poll now")
}
