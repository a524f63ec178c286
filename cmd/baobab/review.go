package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jadenj13/baobab/internals/git"
	"github.com/jadenj13/baobab/internals/reviewer"
	"github.com/jadenj13/baobab/internals/session"
)

func newReviewCmd(a *app) *cobra.Command {
	var (
		prURL string
		post  bool
	)

	cmd := &cobra.Command{
		Use:   "review [file]",
		Short: "Review a source file or a pull/merge request",
		Example: `  baobab review main.go
  baobab review --pr https://github.com/acme/widgets/pull/42 --post`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case prURL != "" && len(args) > 0:
				return errors.New("give either a file or --pr, not both")
			case prURL == "" && len(args) == 0:
				return errors.New("nothing to review: give a file or --pr <url>")
			case prURL == "" && post:
				return errors.New("--post only applies to --pr")
			}

			agent := reviewer.NewAgent(a.session(session.ReviewPreamble), a.log)

			var (
				review reviewer.Review
				err    error
			)
			if prURL == "" {
				review, err = agent.ReviewFile(cmd.Context(), args[0])
			} else {
				var (
					repoURL string
					number  int
				)
				repoURL, number, err = git.ParsePRURL(prURL)
				if err != nil {
					return err
				}
				review, err = a.worker(agent).HandlePR(cmd.Context(), repoURL, number, post)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, review.Body)
			return nil
		},
	}
	cmd.Flags().StringVar(&prURL, "pr", "", "pull/merge request URL to review")
	cmd.Flags().BoolVar(&post, "post", false, "post the review as a comment (and notify Slack if configured)")

	cmd.AddCommand(newReviewServeCmd(a))
	return cmd
}

func newReviewServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Review pull/merge requests labelled for review via webhooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Review.Addr
			}
			agent := reviewer.NewAgent(a.session(session.ReviewPreamble), a.log)
			webhook := reviewer.NewWebhookServer(
				a.worker(agent),
				a.cfg.Review.GitHubSecret,
				a.cfg.Review.GitLabSecret,
				a.cfg.Review.TriggerLabel,
				a.log,
			)

			srv := &http.Server{
				Addr:         addr,
				Handler:      webhook.Handler(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				a.log.Info("review webhook listening", "addr", addr, "label", a.cfg.Review.TriggerLabel)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
			}

			a.log.Info("shutting down")
			shutCtx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default review.addr)")
	return cmd
}

func (a *app) worker(agent *reviewer.Agent) *reviewer.Worker {
	var factoryOpts []git.FactoryOption
	if a.cfg.GitLab.BaseURL != "" {
		factoryOpts = append(factoryOpts, git.WithGitLabBaseURL(a.cfg.GitLab.BaseURL))
	}
	factory := git.NewFactory(a.cfg.GitHub.Token, a.cfg.GitLab.Token, factoryOpts...)

	var notifier reviewer.Notifier
	if a.cfg.Slack.BotToken != "" && a.cfg.Slack.NotifyChannel != "" {
		notifier = reviewer.NewSlackNotifier(a.cfg.Slack.BotToken, a.cfg.Slack.NotifyChannel)
	}
	return reviewer.NewWorker(agent, factory, notifier, a.log)
}
