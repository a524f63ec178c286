// Package docgen writes Markdown documentation for a set of source files.
package docgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	DefaultOutput = "DOCUMENTATION.md"

	maxFileBytes   = 100 << 10
	maxPromptChars = 60000
)

var ErrNoInput = errors.New("no readable source files")

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

type Asker interface {
	Ask(ctx context.Context, text string) (string, error)
}

type File struct {
	Path    string
	Content string
}

type Generator struct {
	asker Asker
	log   *slog.Logger
}

func New(asker Asker, log *slog.Logger) *Generator {
	return &Generator{asker: asker, log: log}
}

// Generate documents paths and writes the result to output, returning the
// path written.
func (g *Generator) Generate(ctx context.Context, paths []string, output string) (string, error) {
	if output == "" {
		output = DefaultOutput
	}

	files, err := Collect(paths, g.log)
	if err != nil {
		return "", err
	}
	// Never feed a previous run's output back in.
	files = exclude(files, output)
	if len(files) == 0 {
		return "", ErrNoInput
	}

	g.log.Info("generating documentation", "files", len(files), "output", output)

	doc, err := g.asker.Ask(ctx, buildPrompt(files))
	if err != nil {
		return "", fmt.Errorf("generate docs: %w", err)
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(output, []byte(strings.TrimSpace(doc)+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", output, err)
	}
	return output, nil
}

// Collect reads the given files, walking directories. Binary, oversized and
// unreadable files are skipped with a log line; a missing top-level path is
// an error.
func Collect(paths []string, log *slog.Logger) ([]File, error) {
	var files []File
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			if f, ok := readFile(root, log); ok {
				files = append(files, f)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warn("skipping unreadable path", "path", path, "err", err)
				return nil
			}
			if d.IsDir() {
				if path != root && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if f, ok := readFile(path, log); ok {
				files = append(files, f)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return files, nil
}

func readFile(path string, log *slog.Logger) (File, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return File{}, false
	}
	if info.Size() > maxFileBytes {
		log.Debug("skipping large file", "path", path, "bytes", info.Size())
		return File{}, false
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Warn("skipping unreadable file", "path", path, "err", err)
		return File{}, false
	}
	if !isText(b) || len(bytes.TrimSpace(b)) == 0 {
		return File{}, false
	}
	return File{Path: filepath.ToSlash(path), Content: string(b)}, true
}

func isText(b []byte) bool {
	head := b
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.IndexByte(head, 0) < 0 && utf8.Valid(b)
}

func exclude(files []File, output string) []File {
	abs, err := filepath.Abs(output)
	if err != nil {
		return files
	}
	out := files[:0]
	for _, f := range files {
		if p, err := filepath.Abs(filepath.FromSlash(f.Path)); err == nil && p == abs {
			continue
		}
		out = append(out, f)
	}
	return out
}

// buildPrompt packs files into one prompt of at most maxPromptChars. The
// first file is truncated rather than dropped; later files that do not fit
// are skipped so smaller ones after them can still be included.
func buildPrompt(files []File) string {
	var sb strings.Builder
	sb.WriteString("Write documentation for the following files.\n")

	included, omitted := 0, 0
	for _, f := range files {
		content := strings.TrimRight(f.Content, "\n")
		section := fileSection(f.Path, content)
		if sb.Len()+len(section) > maxPromptChars {
			if included > 0 {
				omitted++
				continue
			}
			room := maxPromptChars - sb.Len() - len(fileSection(f.Path, "")) - len(truncatedNote)
			section = fileSection(f.Path, cutRunes(content, room)+truncatedNote)
		}
		sb.WriteString(section)
		included++
	}
	if omitted > 0 {
		fmt.Fprintf(&sb, "\n(%d more files omitted: input too large)\n", omitted)
	}
	return sb.String()
}

const truncatedNote = "\n... (truncated)"

func fileSection(path, content string) string {
	return fmt.Sprintf("\n### %s\n\n```\n%s\n```\n", path, content)
}

// cutRunes returns at most n bytes of s without splitting a UTF-8 sequence.
func cutRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
