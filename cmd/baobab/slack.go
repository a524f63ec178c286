package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jadenj13/baobab/internals/session"
	"github.com/jadenj13/baobab/internals/slack"
)

func newSlackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "slack",
		Short: "Answer Slack mentions and DMs over socket mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Slack.BotToken == "" || a.cfg.Slack.AppToken == "" {
				return errors.New("slack.bot_token and slack.app_token are required")
			}

			h, err := slack.NewHandler(cmd.Context(),
				a.cfg.Slack.BotToken,
				a.cfg.Slack.AppToken,
				a.session(session.ChatPreamble),
				a.log,
			)
			if err != nil {
				return err
			}
			a.log.Info("slack relay starting")
			return h.Run(cmd.Context())
		},
	}
}
