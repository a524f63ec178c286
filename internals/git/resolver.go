package git

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type RepoInfo struct {
	Platform Platform
	Host     string // e.g. "github.com" or "gitlab.mycompany.com"
	Owner    string
	Repo     string
	RawURL   string
}

func ParseRepoURL(rawURL string) (RepoInfo, error) {
	rawURL = strings.TrimSpace(rawURL)

	if strings.HasPrefix(rawURL, "git@") {
		rawURL = normaliseSSH(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return RepoInfo{}, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	host := strings.ToLower(u.Hostname())
	platform, err := detectPlatform(host)
	if err != nil {
		return RepoInfo{}, err
	}

	path := strings.Trim(u.Path, "/")
	path = strings.TrimSuffix(path, ".git")

	parts := strings.Split(path, "/")

	switch platform {
	case PlatformGitHub:
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return RepoInfo{}, fmt.Errorf("github URL must have owner and repo: %q", rawURL)
		}
		return RepoInfo{
			Platform: PlatformGitHub,
			Host:     host,
			Owner:    parts[0],
			Repo:     parts[1],
			RawURL:   rawURL,
		}, nil

	case PlatformGitLab:
		if len(parts) < 2 || parts[len(parts)-1] == "" {
			return RepoInfo{}, fmt.Errorf("gitlab URL must have at least namespace and repo: %q", rawURL)
		}
		repo := parts[len(parts)-1]
		owner := strings.Join(parts[:len(parts)-1], "/")
		return RepoInfo{
			Platform: PlatformGitLab,
			Host:     host,
			Owner:    owner,
			Repo:     repo,
			RawURL:   rawURL,
		}, nil
	}

	return RepoInfo{}, fmt.Errorf("unsupported platform for host %q", host)
}

// ParsePRURL splits a pull/merge request URL into its repository URL and number.
//
//	https://github.com/org/repo/pull/42
//	https://gitlab.com/group/sub/repo/-/merge_requests/7
func ParsePRURL(rawURL string) (string, int, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", 0, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	var repoParts []string
	var number string
	for i := 0; i+1 < len(parts) && number == ""; i++ {
		switch {
		case parts[i] == "pull" && i >= 2:
			repoParts, number = parts[:i], parts[i+1]
		case parts[i] == "merge_requests" && i >= 3 && parts[i-1] == "-":
			repoParts, number = parts[:i-1], parts[i+1]
		}
	}
	if number == "" {
		return "", 0, fmt.Errorf("not a pull or merge request URL: %q", rawURL)
	}

	n, err := strconv.Atoi(number)
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("invalid pull request number %q in %q", number, rawURL)
	}
	return u.Scheme + "://" + u.Host + "/" + strings.Join(repoParts, "/"), n, nil
}

func detectPlatform(host string) (Platform, error) {
	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.com"):
		return PlatformGitHub, nil
	case host == "gitlab.com" || strings.Contains(host, "gitlab"):
		return PlatformGitLab, nil
	default:
		return 0, fmt.Errorf(
			"cannot determine platform from host %q: expected a github.com or gitlab domain",
			host,
		)
	}
}

func normaliseSSH(s string) string {
	s = strings.TrimPrefix(s, "git@")
	s = strings.Replace(s, ":", "/", 1)
	return "https://" + s
}

type Factory struct {
	githubToken   string
	gitlabToken   string
	gitlabBaseURL string
}

type FactoryOption func(*Factory)

func WithGitLabBaseURL(baseURL string) FactoryOption {
	return func(f *Factory) {
		if baseURL != "" {
			f.gitlabBaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// NewFactory builds providers on demand. Empty tokens give anonymous,
// read-only access to public repositories.
func NewFactory(githubToken, gitlabToken string, opts ...FactoryOption) *Factory {
	f := &Factory{
		githubToken:   githubToken,
		gitlabToken:   gitlabToken,
		gitlabBaseURL: "https://gitlab.com",
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Factory) ProviderFor(ctx context.Context, repoURL string) (Provider, RepoInfo, error) {
	info, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, RepoInfo{}, err
	}

	switch info.Platform {
	case PlatformGitHub:
		return NewGitHubProvider(ctx, f.githubToken, info), info, nil

	case PlatformGitLab:
		baseURL := f.gitlabBaseURL
		// Self-hosted: talk to the host the repository lives on.
		if info.Host != "gitlab.com" {
			parsed, _ := url.Parse(info.RawURL)
			baseURL = parsed.Scheme + "://" + parsed.Host
		}
		p, err := NewGitLabProvider(f.gitlabToken, baseURL, info)
		return p, info, err
	}

	return nil, info, fmt.Errorf("unsupported platform: %s", info.Platform)
}
