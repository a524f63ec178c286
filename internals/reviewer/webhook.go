package reviewer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const DefaultTriggerLabel = "baobab:review"

type PRHandler interface {
	HandlePR(ctx context.Context, repoURL string, prNumber int, post bool) (Review, error)
}

type WebhookServer struct {
	worker       PRHandler
	githubSecret string
	gitlabSecret string
	label        string
	log          *slog.Logger
}

func NewWebhookServer(worker PRHandler, githubSecret, gitlabSecret, label string, log *slog.Logger) *WebhookServer {
	if label == "" {
		label = DefaultTriggerLabel
	}
	return &WebhookServer{
		worker:       worker,
		githubSecret: githubSecret,
		gitlabSecret: gitlabSecret,
		label:        label,
		log:          log,
	}
}

func (s *WebhookServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/github", s.handleGitHub)
	mux.HandleFunc("POST /webhook/gitlab", s.handleGitLab)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	return mux
}

type githubPRPayload struct {
	Action string `json:"action"`
	Label  struct {
		Name string `json:"name"`
	} `json:"label"`
	PullRequest struct {
		Number int    `json:"number"`
		URL    string `json:"html_url"`
	} `json:"pull_request"`
	Repository struct {
		HTMLURL string `json:"html_url"`
	} `json:"repository"`
}

func (s *WebhookServer) handleGitHub(w http.ResponseWriter, r *http.Request) {
	body, err := s.readAndVerify(r, s.githubSecret, "x-hub-signature-256")
	if err != nil {
		s.log.Warn("github webhook verify failed", "err", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("x-github-event") != "pull_request" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var payload githubPRPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if payload.Action != "labeled" || payload.Label.Name != s.label {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.dispatch(payload.Repository.HTMLURL, payload.PullRequest.Number)
	w.WriteHeader(http.StatusAccepted)
}

type gitlabLabel struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type gitlabMRPayload struct {
	ObjectKind string `json:"object_kind"`
	Changes    struct {
		Labels struct {
			Current  []gitlabLabel `json:"current"`
			Previous []gitlabLabel `json:"previous"`
		} `json:"labels"`
	} `json:"changes"`
	ObjectAttributes struct {
		IID int `json:"iid"`
	} `json:"object_attributes"`
	Project struct {
		WebURL string `json:"web_url"`
	} `json:"project"`
}

func (s *WebhookServer) handleGitLab(w http.ResponseWriter, r *http.Request) {
	if s.gitlabSecret != "" && !hmac.Equal([]byte(r.Header.Get("x-gitlab-token")), []byte(s.gitlabSecret)) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	var payload gitlabMRPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if payload.ObjectKind != "merge_request" || !labelAdded(payload.Changes.Labels.Current, payload.Changes.Labels.Previous, s.label) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.dispatch(payload.Project.WebURL, payload.ObjectAttributes.IID)
	w.WriteHeader(http.StatusAccepted)
}

func (s *WebhookServer) dispatch(repoURL string, number int) {
	s.log.Info("review requested", "repo", repoURL, "pr", number)
	go func() {
		ctx := context.Background()
		if _, err := s.worker.HandlePR(ctx, repoURL, number, true); err != nil {
			s.log.Error("review failed", "repo", repoURL, "pr", number, "err", err)
		}
	}()
}

func (s *WebhookServer) readAndVerify(r *http.Request, secret, sigHeader string) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if secret == "" {
		return body, nil
	}
	sig := strings.TrimPrefix(r.Header.Get(sigHeader), "sha256=")
	if !hmac.Equal([]byte(sign(body, secret)), []byte(sig)) {
		return nil, fmt.Errorf("signature mismatch")
	}
	return body, nil
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// labelAdded is true when label is on the MR now but was not before.
// GitLab sends either "title" or "name" depending on the hook version.
func labelAdded(current, previous []gitlabLabel, label string) bool {
	has := func(ls []gitlabLabel) bool {
		for _, l := range ls {
			if l.Name == label || l.Title == label {
				return true
			}
		}
		return false
	}
	return has(current) && !has(previous)
}
