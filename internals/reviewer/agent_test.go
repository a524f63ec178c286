package reviewer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadenj13/baobab/internals/git"
)

type fakeAsker struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (f *fakeAsker) Ask(_ context.Context, text string) (string, error) {
	f.calls++
	f.prompt = text
	return f.reply, f.err
}

func quietLog() *slog.Logger { return slog.New(slog.DiscardHandler) }

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReviewFile(t *testing.T) {
	asker := &fakeAsker{reply: "Looks fine. Verdict: approve"}
	path := writeFile(t, "main.go", "package main\n\nfunc main() {}\n")

	review, err := NewAgent(asker, quietLog()).ReviewFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, review.Target)
	assert.Equal(t, "Looks fine. Verdict: approve", review.Body)
	assert.Contains(t, asker.prompt, "File: main.go")
	assert.Contains(t, asker.prompt, "Language: Go")
	assert.Contains(t, asker.prompt, "```go\npackage main")
}

func TestReviewFile_MissingOrEmpty(t *testing.T) {
	asker := &fakeAsker{}
	agent := NewAgent(asker, quietLog())

	_, err := agent.ReviewFile(context.Background(), filepath.Join(t.TempDir(), "nope.py"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = agent.ReviewFile(context.Background(), writeFile(t, "blank.py", "  \n"))
	require.ErrorContains(t, err, "empty")

	assert.Zero(t, asker.calls)
}

func TestReviewFile_LLMError(t *testing.T) {
	asker := &fakeAsker{err: errors.New("401 unauthorized")}
	_, err := NewAgent(asker, quietLog()).ReviewFile(context.Background(), writeFile(t, "x.js", "let a = 1"))
	require.ErrorContains(t, err, "llm review")
}

func TestReviewPR(t *testing.T) {
	asker := &fakeAsker{reply: "Needs tests."}
	pr := git.PR{
		Number:      3,
		Title:       "Add cache",
		Description: "Adds an LRU cache.",
		URL:         "https://github.com/acme/widgets/pull/3",
		Branch:      "cache",
		BaseBranch:  "main",
		Diff:        "+func Get() {}",
	}

	review, err := NewAgent(asker, quietLog()).ReviewPR(context.Background(), pr)
	require.NoError(t, err)
	assert.Equal(t, pr.URL, review.Target)
	assert.Contains(t, asker.prompt, "Title: Add cache")
	assert.Contains(t, asker.prompt, "cache → main")
	assert.Contains(t, asker.prompt, "+func Get() {}")

	_, err = NewAgent(asker, quietLog()).ReviewPR(context.Background(), git.PR{Number: 4})
	require.ErrorContains(t, err, "empty diff")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	out := truncate(strings.Repeat("x", 10), 4)
	assert.True(t, strings.HasPrefix(out, "xxxx\n... (truncated, 10 chars total)"))
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	out := truncate("aé"+strings.Repeat("b", 10), 2)
	assert.True(t, strings.HasPrefix(out, "a\n... (truncated"))
	assert.True(t, utf8.ValidString(out))
}

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, "TypeScript", languageFor("src/App.TSX"))
	assert.Equal(t, "", languageFor("Makefile"))
}
