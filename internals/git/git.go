package git

import "context"

// Provider reads pull/merge requests from a hosted forge and comments on them.
type Provider interface {
	GetPR(ctx context.Context, number int) (PR, error)
	PostComment(ctx context.Context, number int, body string) error
	RepoURL() string
}

type PR struct {
	Number      int
	Title       string
	Description string
	URL         string
	Branch      string
	BaseBranch  string
	Diff        string // unified diff of all changes
}

type Platform int

const (
	PlatformGitHub Platform = iota
	PlatformGitLab
)

func (p Platform) String() string {
	switch p {
	case PlatformGitHub:
		return "github"
	case PlatformGitLab:
		return "gitlab"
	default:
		return "unknown"
	}
}
