package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrUsage is returned by a command given the wrong arguments.
var ErrUsage = errors.New("usage")

// Command is one console verb.
type Command struct {
	Usage string
	Help  string
	Run   func(ctx context.Context, args []string) error
}

// Console reads commands line by line and dispatches them.
type Console struct {
	in     io.Reader
	out    io.Writer
	logger *zap.Logger

	mu       sync.Mutex
	commands map[string]Command
}

func NewConsole(in io.Reader, out io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{in: in, out: out, logger: logger, commands: make(map[string]Command)}
}

// Handle registers a verb. A later registration replaces an earlier one.
func (c *Console) Handle(name string, cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands[name] = cmd
}

// Run processes input until EOF, quit, or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	c.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := c.Exec(ctx, line); quit {
				return nil
			}
			c.prompt()
		}
	}
}

// Exec runs a single input line and reports whether the console should stop.
func (c *Console) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		c.help()
		return false
	}

	c.mu.Lock()
	cmd, ok := c.commands[name]
	c.mu.Unlock()
	if !ok {
		fmt.Fprintf(c.out, "unknown command %q, try 'help'\n", name)
		return false
	}
	if err := cmd.Run(ctx, args); err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprintf(c.out, "usage: %s %s\n", name, cmd.Usage)
			return false
		}
		c.logger.Debug("console command failed", zap.String("command", name), zap.Error(err))
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	return false
}

func (c *Console) help() {
	c.mu.Lock()
	names := make([]string, 0, len(c.commands))
	for n := range c.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	cmds := make([]Command, len(names))
	for i, n := range names {
		cmds[i] = c.commands[n]
	}
	c.mu.Unlock()

	for i, n := range names {
		fmt.Fprintf(c.out, "  %-10s %-24s %s\n", n, cmds[i].Usage, cmds[i].Help)
	}
	fmt.Fprintf(c.out, "  %-10s %-24s %s\n", "quit", "", "leave")
}

func (c *Console) prompt() {
	fmt.Fprint(c.out, "> ")
}
