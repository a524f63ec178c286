package reviewer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jadenj13/baobab/internals/git"
)

type Notifier interface {
	NotifyReview(ctx context.Context, msg ReviewNotice) error
}

type ReviewNotice struct {
	PRURL   string
	PRTitle string
	RepoURL string
	Summary string
}

type ProviderFactory interface {
	ProviderFor(ctx context.Context, repoURL string) (git.Provider, git.RepoInfo, error)
}

type Worker struct {
	agent    *Agent
	factory  ProviderFactory
	notifier Notifier // optional
	log      *slog.Logger
}

func NewWorker(agent *Agent, factory ProviderFactory, notifier Notifier, log *slog.Logger) *Worker {
	return &Worker{agent: agent, factory: factory, notifier: notifier, log: log}
}

// HandlePR reviews one pull/merge request. With post set, the review is left
// as a comment on it and, if a notifier is configured, announced there.
func (w *Worker) HandlePR(ctx context.Context, repoURL string, prNumber int, post bool) (Review, error) {
	provider, _, err := w.factory.ProviderFor(ctx, repoURL)
	if err != nil {
		return Review{}, fmt.Errorf("build provider: %w", err)
	}

	pr, err := provider.GetPR(ctx, prNumber)
	if err != nil {
		return Review{}, fmt.Errorf("get PR: %w", err)
	}

	review, err := w.agent.ReviewPR(ctx, pr)
	if err != nil {
		return Review{}, fmt.Errorf("agent review: %w", err)
	}

	if !post {
		return review, nil
	}

	if err := provider.PostComment(ctx, prNumber, formatComment(review)); err != nil {
		return review, fmt.Errorf("post review: %w", err)
	}
	w.log.Info("review posted", "pr", prNumber, "repo", repoURL)

	if w.notifier != nil {
		if err := w.notifier.NotifyReview(ctx, ReviewNotice{
			PRURL:   pr.URL,
			PRTitle: pr.Title,
			RepoURL: repoURL,
			Summary: summaryLine(review.Body),
		}); err != nil {
			w.log.Warn("failed to send Slack notification", "err", err)
		}
	}

	return review, nil
}

func formatComment(r Review) string {
	var sb strings.Builder
	sb.WriteString("### Code review\n\n")
	sb.WriteString(r.Body)
	sb.WriteString("\n\n---\n*Posted by Baobab*")
	return sb.String()
}

// summaryLine is the first non-blank line of a review, capped for chat.
func summaryLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#*- "))
		if line == "" {
			continue
		}
		return truncate(line, 200)
	}
	return ""
}
