package git

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

type GitHubProvider struct {
	gh   *github.Client
	info RepoInfo
}

func NewGitHubProvider(ctx context.Context, token string, info RepoInfo) *GitHubProvider {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	return newGitHubProvider(github.NewClient(httpClient), info)
}

func newGitHubProvider(gh *github.Client, info RepoInfo) *GitHubProvider {
	return &GitHubProvider{gh: gh, info: info}
}

func (p *GitHubProvider) RepoURL() string { return p.info.RawURL }

func (p *GitHubProvider) GetPR(ctx context.Context, number int) (PR, error) {
	pr, _, err := p.gh.PullRequests.Get(ctx, p.info.Owner, p.info.Repo, number)
	if err != nil {
		return PR{}, fmt.Errorf("github get PR: %w", err)
	}

	diff, _, err := p.gh.PullRequests.GetRaw(ctx, p.info.Owner, p.info.Repo, number,
		github.RawOptions{Type: github.Diff})
	if err != nil {
		return PR{}, fmt.Errorf("github get PR diff: %w", err)
	}

	return PR{
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		URL:         pr.GetHTMLURL(),
		Branch:      pr.GetHead().GetRef(),
		BaseBranch:  pr.GetBase().GetRef(),
		Diff:        diff,
	}, nil
}

func (p *GitHubProvider) PostComment(ctx context.Context, number int, body string) error {
	_, _, err := p.gh.Issues.CreateComment(ctx, p.info.Owner, p.info.Repo, number,
		&github.IssueComment{Body: github.String(body)})
	if err != nil {
		return fmt.Errorf("github comment: %w", err)
	}
	return nil
}
