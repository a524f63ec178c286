// Package commitmsg suggests a commit message for the currently staged changes.
package commitmsg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	NoStagedChanges = `No staged changes found. Stage files with "git add" first.`

	maxDiffChars = 20000
)

type DiffSource interface {
	StagedDiff(ctx context.Context) (string, error)
}

type Committer interface {
	Commit(ctx context.Context, message string) error
}

type Asker interface {
	Ask(ctx context.Context, text string) (string, error)
}

type Helper struct {
	diffs DiffSource
	asker Asker
	out   io.Writer
	log   *slog.Logger
}

func New(diffs DiffSource, asker Asker, out io.Writer, log *slog.Logger) *Helper {
	return &Helper{diffs: diffs, asker: asker, out: out, log: log}
}

// Suggest prints a commit message for the staged diff and returns it. An
// empty index prints NoStagedChanges and returns "" without calling the model.
func (h *Helper) Suggest(ctx context.Context) (string, error) {
	diff, err := h.diffs.StagedDiff(ctx)
	if err != nil {
		return "", fmt.Errorf("staged diff: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		fmt.Fprintln(h.out, NoStagedChanges)
		return "", nil
	}

	h.log.Info("suggesting commit message", "diff_bytes", len(diff))

	msg, err := h.asker.Ask(ctx, buildPrompt(diff))
	if err != nil {
		return "", fmt.Errorf("suggest commit message: %w", err)
	}
	msg = cleanMessage(msg)

	fmt.Fprintln(h.out, msg)
	return msg, nil
}

// Apply commits the staged changes with the suggested message. It is a no-op
// when there was nothing staged.
func (h *Helper) Apply(ctx context.Context, c Committer) error {
	msg, err := h.Suggest(ctx)
	if err != nil || msg == "" {
		return err
	}
	if err := c.Commit(ctx, msg); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	h.log.Info("committed", "summary", firstLine(msg))
	return nil
}

func buildPrompt(diff string) string {
	if len(diff) > maxDiffChars {
		cut := maxDiffChars
		for cut > 0 && !utf8.RuneStart(diff[cut]) {
			cut--
		}
		diff = diff[:cut] + "\n... (diff truncated)"
	}
	return "Staged diff:\n\n```diff\n" + diff + "\n```"
}

// cleanMessage drops a surrounding code fence models sometimes add anyway.
func cleanMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if !strings.HasPrefix(msg, "```") {
		return msg
	}
	lines := strings.Split(msg, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[len(lines)-1]) != "```" {
		return msg
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
