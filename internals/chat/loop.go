// Package chat runs the interactive read-ask-print loop.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const banner = "Baobab chat. Type 'exit' or 'quit' to leave."

type Asker interface {
	Ask(ctx context.Context, text string) (string, error)
}

type Loop struct {
	asker Asker
	in    io.Reader
	out   io.Writer
	log   *slog.Logger

	color bool
	width int // 0 disables wrapping
}

func NewLoop(asker Asker, in io.Reader, out io.Writer, log *slog.Logger) *Loop {
	l := &Loop{asker: asker, in: in, out: out, log: log}
	if f, ok := out.(*os.File); ok && isTerminal(f) {
		l.color = os.Getenv("NO_COLOR") == ""
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			l.width = w
		}
	}
	return l
}

// Run prompts until the operator types exit/quit, input ends, or ctx is done.
// A failed request is reported and the loop keeps going.
func (l *Loop) Run(ctx context.Context) error {
	log := l.log.With("session", uuid.NewString())
	log.Info("chat started")

	fmt.Fprintln(l.out, banner)

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines, readErr := l.readLines(readCtx)

	turns := 0
	for {
		fmt.Fprint(l.out, l.label("You", text.FgYellow)+": ")

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(l.out)
			log.Info("chat cancelled", "turns", turns)
			return ctx.Err()
		case line, ok = <-lines:
		}
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(l.out)
			return err
		}
		if !ok {
			fmt.Fprintln(l.out)
			if err := <-readErr; err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			log.Info("chat input closed", "turns", turns)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsExit(line) {
			fmt.Fprintln(l.out, "Goodbye!")
			log.Info("chat ended", "turns", turns)
			return nil
		}

		reply, err := l.asker.Ask(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(l.out)
				return ctx.Err()
			}
			log.Error("chat request failed", "err", err)
			fmt.Fprintf(l.out, "%s: %v\n", l.label("Error", text.FgRed), err)
			continue
		}
		turns++
		fmt.Fprintf(l.out, "%s: %s\n", l.label("Baobab", text.FgCyan), l.wrap(reply))
	}
}

// readLines scans input on its own goroutine so a blocked read never holds up
// cancellation. The scan error, if any, is sent before lines is closed.
func (l *Loop) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(l.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// IsExit reports whether line is exactly "exit" or "quit", ignoring case.
func IsExit(line string) bool {
	line = strings.TrimSpace(line)
	return strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit")
}

func (l *Loop) label(s string, c text.Color) string {
	if !l.color {
		return s
	}
	return text.Colors{c, text.Bold}.Sprint(s)
}

func (l *Loop) wrap(s string) string {
	if l.width <= 0 {
		return s
	}
	return text.WrapSoft(s, l.width)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
