package git

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

func TestJoinDiffs(t *testing.T) {
	out := joinDiffs([]*gitlab.MergeRequestDiff{
		{OldPath: "a.go", NewPath: "a.go", Diff: "@@ -1 +1 @@\n-a\n+b\n"},
		{OldPath: "old.txt", NewPath: "new.txt", Diff: "@@ -1 +1 @@\n-x\n+y"},
	})

	assert.Contains(t, out, "diff --git a/a.go b/a.go\n--- a/a.go\n+++ b/a.go\n@@ -1 +1 @@\n-a\n+b\n")
	assert.Contains(t, out, "diff --git a/old.txt b/new.txt\n")
	assert.True(t, strings.HasSuffix(out, "+y\n"))
	assert.Empty(t, joinDiffs(nil))
}

func TestGitLabProvider_GetPRAndComment(t *testing.T) {
	var note map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/merge_requests/5"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"iid":           5,
				"title":         "Fix parser",
				"description":   "Closes #3",
				"web_url":       "https://gitlab.example.org/team/app/-/merge_requests/5",
				"source_branch": "fix-parser",
				"target_branch": "main",
			})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/merge_requests/5/diffs"):
			_, _ = io.WriteString(w, `[{"old_path":"p.go","new_path":"p.go","diff":"@@ -1 +1 @@\n-bad\n+good\n"}]`)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/merge_requests/5/notes"):
			_ = json.NewDecoder(r.Body).Decode(&note)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id": 10}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"404 Not Found"}`)
		}
	}))
	defer srv.Close()

	p, err := NewGitLabProvider("token", srv.URL, RepoInfo{Platform: PlatformGitLab, Owner: "team", Repo: "app"})
	require.NoError(t, err)

	pr, err := p.GetPR(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Fix parser", pr.Title)
	assert.Equal(t, "fix-parser", pr.Branch)
	assert.Equal(t, "main", pr.BaseBranch)
	assert.Contains(t, pr.Diff, "+good")

	require.NoError(t, p.PostComment(context.Background(), 5, "LGTM"))
	assert.Equal(t, "LGTM", note["body"])
}
