package reviewer

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

type SlackNotifier struct {
	client    *slack.Client
	channelID string // channel to post review notifications to
}

func NewSlackNotifier(botToken, channelID string, opts ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:    slack.New(botToken, opts...),
		channelID: channelID,
	}
}

func (n *SlackNotifier) NotifyReview(ctx context.Context, msg ReviewNotice) error {
	text := fmt.Sprintf(
		":mag: *Review posted*\n"+
			"*<%s|%s>*\n"+
			"Repo: %s",
		msg.PRURL, msg.PRTitle,
		msg.RepoURL,
	)
	if msg.Summary != "" {
		text += "\n> " + msg.Summary
	}

	_, _, err := n.client.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("slack notify: %w", err)
	}
	return nil
}
