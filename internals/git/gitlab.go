package git

import (
	"context"
	"fmt"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type GitLabProvider struct {
	gl      *gitlab.Client
	info    RepoInfo
	baseURL string
}

func NewGitLabProvider(token, baseURL string, info RepoInfo) (*GitLabProvider, error) {
	gl, err := gitlab.NewClient(token, gitlab.WithBaseURL(baseURL+"/api/v4"))
	if err != nil {
		return nil, fmt.Errorf("gitlab client: %w", err)
	}
	return &GitLabProvider{gl: gl, info: info, baseURL: baseURL}, nil
}

func (p *GitLabProvider) RepoURL() string { return p.info.RawURL }

func (p *GitLabProvider) pid() string {
	return p.info.Owner + "/" + p.info.Repo
}

func (p *GitLabProvider) GetPR(ctx context.Context, number int) (PR, error) {
	mr, _, err := p.gl.MergeRequests.GetMergeRequest(p.pid(), int64(number), nil, gitlab.WithContext(ctx))
	if err != nil {
		return PR{}, fmt.Errorf("gitlab get MR: %w", err)
	}

	diffs, _, err := p.gl.MergeRequests.ListMergeRequestDiffs(p.pid(), int64(number), nil, gitlab.WithContext(ctx))
	if err != nil {
		return PR{}, fmt.Errorf("gitlab get MR diffs: %w", err)
	}

	return PR{
		Number:      number,
		Title:       mr.Title,
		Description: mr.Description,
		URL:         mr.WebURL,
		Branch:      mr.SourceBranch,
		BaseBranch:  mr.TargetBranch,
		Diff:        joinDiffs(diffs),
	}, nil
}

func (p *GitLabProvider) PostComment(ctx context.Context, number int, body string) error {
	opts := &gitlab.CreateMergeRequestNoteOptions{Body: gitlab.Ptr(body)}
	_, _, err := p.gl.Notes.CreateMergeRequestNote(p.pid(), int64(number), opts, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("gitlab note: %w", err)
	}
	return nil
}

// joinDiffs rebuilds a unified diff from GitLab's per-file hunks.
func joinDiffs(diffs []*gitlab.MergeRequestDiff) string {
	var sb strings.Builder
	for _, d := range diffs {
		fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", d.OldPath, d.NewPath)
		fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", d.OldPath, d.NewPath)
		sb.WriteString(d.Diff)
		if !strings.HasSuffix(d.Diff, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
