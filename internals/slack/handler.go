package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

const apology = "Sorry, something went wrong. Please try again."

// Responder answers one message. The relay keeps no conversation state, so
// every message in a thread is answered on its own.
type Responder interface {
	Ask(ctx context.Context, text string) (string, error)
}

type Handler struct {
	client    *slack.Client
	socket    *socketmode.Client
	botID     string
	responder Responder
	log       *slog.Logger
}

type IncomingMessage struct {
	ThreadTS  string // thread to reply in; the message's own ts for root messages
	ChannelID string
	UserID    string
	Text      string
	IsDM      bool
}

func NewHandler(ctx context.Context, botToken, appToken string, responder Responder, log *slog.Logger, opts ...slack.Option) (*Handler, error) {
	opts = append([]slack.Option{slack.OptionAppLevelToken(appToken)}, opts...)
	api := slack.New(botToken, opts...)

	socket := socketmode.New(
		api,
		socketmode.OptionLog(slog.NewLogLogger(log.Handler(), slog.LevelDebug)),
	)

	// The bot's own user ID is needed to strip mentions from message text.
	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack auth test: %w", err)
	}

	return &Handler{
		client:    api,
		socket:    socket,
		botID:     auth.UserID,
		responder: responder,
		log:       log,
	}, nil
}

// Run processes socket-mode events until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- h.socket.RunContext(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case evt, ok := <-h.socket.Events:
			if !ok {
				return nil
			}
			h.handleEvent(ctx, evt)
		}
	}
}

func (h *Handler) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		if evt.Request != nil {
			h.socket.Ack(*evt.Request)
		}
		payload, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok || payload.Type != slackevents.CallbackEvent {
			return
		}
		if msg, ok := h.toMessage(payload.InnerEvent); ok {
			go h.dispatch(ctx, msg)
		}
	case socketmode.EventTypeConnecting:
		h.log.Info("connecting to slack")
	case socketmode.EventTypeConnected:
		h.log.Info("connected to slack")
	case socketmode.EventTypeConnectionError:
		h.log.Error("slack connection error")
	}
}

func (h *Handler) toMessage(inner slackevents.EventsAPIInnerEvent) (IncomingMessage, bool) {
	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		return IncomingMessage{
			ThreadTS:  threadTS(ev.ThreadTimeStamp, ev.TimeStamp),
			ChannelID: ev.Channel,
			UserID:    ev.User,
			Text:      h.stripMention(ev.Text),
		}, true

	case *slackevents.MessageEvent:
		// Ignore bot messages to avoid feedback loops.
		if ev.BotID != "" || ev.SubType == "bot_message" {
			return IncomingMessage{}, false
		}
		if ev.ChannelType != "im" {
			return IncomingMessage{}, false
		}
		return IncomingMessage{
			ThreadTS:  threadTS(ev.ThreadTimeStamp, ev.TimeStamp),
			ChannelID: ev.Channel,
			UserID:    ev.User,
			Text:      ev.Text,
			IsDM:      true,
		}, true
	}
	return IncomingMessage{}, false
}

func (h *Handler) dispatch(ctx context.Context, msg IncomingMessage) {
	h.log.Info("incoming message",
		"channel", msg.ChannelID,
		"thread", msg.ThreadTS,
		"user", msg.UserID,
		"dm", msg.IsDM,
	)

	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	reply, err := h.responder.Ask(ctx, msg.Text)
	if err != nil {
		h.log.Error("ask failed", "err", err)
		reply = apology
	}

	h.postReply(ctx, msg.ChannelID, msg.ThreadTS, reply)
}

func (h *Handler) postReply(ctx context.Context, channelID, threadTS, text string) {
	_, _, err := h.client.PostMessageContext(ctx,
		channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS),
	)
	if err != nil {
		h.log.Error("failed to post message", "err", err)
	}
}

func (h *Handler) stripMention(text string) string {
	mention := "<@" + h.botID + ">"
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), mention))
}

func threadTS(threadTS, msgTS string) string {
	if threadTS != "" {
		return threadTS
	}
	return msgTS
}
