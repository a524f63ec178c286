package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repo is a local working tree driven through the git binary.
type Repo struct {
	dir string // empty means the process working directory
}

func Open(dir string) *Repo {
	return &Repo{dir: dir}
}

func (r *Repo) Dir() string { return r.dir }

func (r *Repo) IsWorkTree(ctx context.Context) bool {
	out, err := run(ctx, r.dir, "git", "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// StagedDiff returns the diff of the index against HEAD.
func (r *Repo) StagedDiff(ctx context.Context) (string, error) {
	return run(ctx, r.dir, "git", "diff", "--staged")
}

func (r *Repo) Commit(ctx context.Context, message string) error {
	_, err := run(ctx, r.dir, "git", "commit", "-m", message)
	return err
}

func run(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %q: %w\nstderr: %s", name+" "+strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}
