package reviewer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadenj13/baobab/internals/git"
)

type fakeProvider struct {
	pr         git.PR
	getErr     error
	commentErr error
	comments   []string
}

func (p *fakeProvider) GetPR(_ context.Context, _ int) (git.PR, error) { return p.pr, p.getErr }

func (p *fakeProvider) PostComment(_ context.Context, _ int, body string) error {
	p.comments = append(p.comments, body)
	return p.commentErr
}

func (p *fakeProvider) RepoURL() string { return "https://github.com/acme/widgets" }

type fakeFactory struct {
	provider *fakeProvider
	err      error
}

func (f *fakeFactory) ProviderFor(_ context.Context, _ string) (git.Provider, git.RepoInfo, error) {
	if f.err != nil {
		return nil, git.RepoInfo{}, f.err
	}
	return f.provider, git.RepoInfo{}, nil
}

type fakeNotifier struct {
	notices []ReviewNotice
	err     error
}

func (n *fakeNotifier) NotifyReview(_ context.Context, msg ReviewNotice) error {
	n.notices = append(n.notices, msg)
	return n.err
}

func samplePR() git.PR {
	return git.PR{Number: 9, Title: "Fix bug", URL: "https://github.com/acme/widgets/pull/9", Diff: "-a\n+b"}
}

func TestHandlePR_WithoutPosting(t *testing.T) {
	provider := &fakeProvider{pr: samplePR()}
	notifier := &fakeNotifier{}
	w := NewWorker(NewAgent(&fakeAsker{reply: "ok"}, quietLog()), &fakeFactory{provider: provider}, notifier, quietLog())

	review, err := w.HandlePR(context.Background(), "https://github.com/acme/widgets", 9, false)
	require.NoError(t, err)
	assert.Equal(t, "ok", review.Body)
	assert.Empty(t, provider.comments)
	assert.Empty(t, notifier.notices)
}

func TestHandlePR_PostsAndNotifies(t *testing.T) {
	provider := &fakeProvider{pr: samplePR()}
	notifier := &fakeNotifier{err: errors.New("slack down")}
	w := NewWorker(NewAgent(&fakeAsker{reply: "## Summary\nSolid change."}, quietLog()), &fakeFactory{provider: provider}, notifier, quietLog())

	_, err := w.HandlePR(context.Background(), "https://github.com/acme/widgets", 9, true)
	require.NoError(t, err, "notification failures are not fatal")

	require.Len(t, provider.comments, 1)
	assert.Contains(t, provider.comments[0], "Solid change.")
	assert.Contains(t, provider.comments[0], "*Posted by Baobab*")

	require.Len(t, notifier.notices, 1)
	assert.Equal(t, "Summary", notifier.notices[0].Summary)
	assert.Equal(t, "Fix bug", notifier.notices[0].PRTitle)
}

func TestHandlePR_NilNotifier(t *testing.T) {
	provider := &fakeProvider{pr: samplePR()}
	w := NewWorker(NewAgent(&fakeAsker{reply: "ok"}, quietLog()), &fakeFactory{provider: provider}, nil, quietLog())

	_, err := w.HandlePR(context.Background(), "u", 9, true)
	require.NoError(t, err)
	assert.Len(t, provider.comments, 1)
}

func TestHandlePR_Errors(t *testing.T) {
	agent := NewAgent(&fakeAsker{reply: "ok"}, quietLog())

	_, err := NewWorker(agent, &fakeFactory{err: errors.New("bad url")}, nil, quietLog()).
		HandlePR(context.Background(), "u", 1, false)
	require.ErrorContains(t, err, "build provider")

	_, err = NewWorker(agent, &fakeFactory{provider: &fakeProvider{getErr: errors.New("404")}}, nil, quietLog()).
		HandlePR(context.Background(), "u", 1, false)
	require.ErrorContains(t, err, "get PR")

	_, err = NewWorker(agent, &fakeFactory{provider: &fakeProvider{pr: samplePR(), commentErr: errors.New("403")}}, nil, quietLog()).
		HandlePR(context.Background(), "u", 1, true)
	require.ErrorContains(t, err, "post review")
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "Verdict: approve", summaryLine("\n\n  - Verdict: approve\nmore"))
	assert.Equal(t, "", summaryLine("   \n"))
}
