package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"carrito-cli/internal/live"
	"carrito-cli/internal/ui"
)

// pageSession is the plumbing shared by the interactive pages: one live
// client, one terminal display and one console on stdin.
type pageSession struct {
	rt      *runtime
	live    *live.Client
	term    *ui.Terminal
	console *ui.Console
}

func newPageSession() *pageSession {
	rt := loadRuntime()
	term := ui.NewTerminal(os.Stdout, rt.logger)
	console := ui.NewConsole(os.Stdin, os.Stdout, rt.logger)
	console.Handle("status", ui.Command{
		Help: "show every field",
		Run: func(context.Context, []string) error {
			term.Summary()
			return nil
		},
	})
	return &pageSession{
		rt:      rt,
		live:    rt.newLive(),
		term:    term,
		console: console,
	}
}

// run connects the live channel, starts the page, runs its timers and hands
// stdin to the console until the user quits or the process is signalled.
func (s *pageSession) run(start func(context.Context) error, loop func(context.Context)) {
	defer s.rt.logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.live.Run(ctx); err != nil {
			s.rt.logger.Error("live channel stopped", zap.Error(err))
		}
	}()

	if err := start(ctx); err != nil {
		fmt.Printf("Error starting page: %v\n", err)
		cancel()
		wg.Wait()
		os.Exit(1)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		loop(ctx)
	}()

	fmt.Println("Type 'help' for commands.")
	if err := s.console.Run(ctx); err != nil {
		s.rt.logger.Warn("console input failed", zap.Error(err))
	}
	cancel()
	wg.Wait()
}

func argInt(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, ui.ErrUsage
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, ui.ErrUsage
	}
	return n, nil
}

func argInt64(args []string, i int) (int64, error) {
	if i >= len(args) {
		return 0, ui.ErrUsage
	}
	n, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		return 0, ui.ErrUsage
	}
	return n, nil
}
