package reviewer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jadenj13/baobab/internals/git"
)

const maxReviewChars = 20000

type Asker interface {
	Ask(ctx context.Context, text string) (string, error)
}

type Review struct {
	Target string // file path or PR URL
	Body   string
}

type Agent struct {
	asker Asker
	log   *slog.Logger
}

func NewAgent(asker Asker, log *slog.Logger) *Agent {
	return &Agent{asker: asker, log: log}
}

func (a *Agent) ReviewFile(ctx context.Context, path string) (Review, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Review{}, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return Review{}, fmt.Errorf("%s is empty, nothing to review", path)
	}

	a.log.Info("reviewing file", "path", path, "bytes", len(b))

	body, err := a.asker.Ask(ctx, buildFilePrompt(path, string(b)))
	if err != nil {
		return Review{}, fmt.Errorf("llm review: %w", err)
	}
	return Review{Target: path, Body: body}, nil
}

func (a *Agent) ReviewPR(ctx context.Context, pr git.PR) (Review, error) {
	if strings.TrimSpace(pr.Diff) == "" {
		return Review{}, fmt.Errorf("PR #%d has an empty diff, nothing to review", pr.Number)
	}

	a.log.Info("reviewing PR", "pr", pr.Number, "url", pr.URL)

	body, err := a.asker.Ask(ctx, buildPRPrompt(pr))
	if err != nil {
		return Review{}, fmt.Errorf("llm review: %w", err)
	}
	return Review{Target: pr.URL, Body: body}, nil
}

func buildFilePrompt(path, content string) string {
	lang := languageFor(path)
	header := fmt.Sprintf("File: %s", filepath.Base(path))
	if lang != "" {
		header += fmt.Sprintf("\nLanguage: %s", lang)
	}
	return fmt.Sprintf("%s\n\n```%s\n%s\n```", header, strings.ToLower(lang), truncate(content, maxReviewChars))
}

func buildPRPrompt(pr git.PR) string {
	return fmt.Sprintf(`Please review the following pull request.

Title: %s
Branch: %s → %s

%s

## Diff

%s`,
		pr.Title,
		pr.Branch, pr.BaseBranch,
		truncate(pr.Description, 1000),
		truncate(pr.Diff, maxReviewChars),
	)
}

var languages = map[string]string{
	".go":   "Go",
	".py":   "Python",
	".js":   "JavaScript",
	".jsx":  "JavaScript",
	".ts":   "TypeScript",
	".tsx":  "TypeScript",
	".java": "Java",
	".rb":   "Ruby",
	".rs":   "Rust",
	".c":    "C",
	".h":    "C",
	".cpp":  "C++",
	".cs":   "CSharp",
	".php":  "PHP",
	".sh":   "Shell",
	".sql":  "SQL",
	".html": "HTML",
	".css":  "CSS",
}

func languageFor(path string) string {
	return languages[strings.ToLower(filepath.Ext(path))]
}

// truncate keeps at most max bytes of s, backing up to a rune boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n... (truncated, %d chars total)", len(s))
}
