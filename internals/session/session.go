// Package session turns one piece of caller text into one Messages API call.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jadenj13/baobab/internals/llm"
)

var ErrEmptyPrompt = errors.New("prompt text is empty")

type Completer interface {
	Complete(ctx context.Context, system string, messages []llm.Message) (*llm.Response, error)
}

// Session is stateless: every Ask is an independent, single-attempt call.
type Session struct {
	llm      Completer
	preamble string
	log      *slog.Logger
}

type Option func(*Session)

func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

func New(llm Completer, preamble string, opts ...Option) *Session {
	s := &Session{
		llm:      llm,
		preamble: strings.TrimSpace(preamble),
		log:      slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) Preamble() string { return s.preamble }

// Ask sends text, prefixed by the session preamble, as a single user message
// and returns the first text block of the reply (llm.NoResponse if none).
func (s *Session) Ask(ctx context.Context, text string) (string, error) {
	msg, err := s.Compose(text)
	if err != nil {
		return "", err
	}

	resp, err := s.llm.Complete(ctx, "", []llm.Message{msg})
	if err != nil {
		return "", fmt.Errorf("ask: %w", err)
	}

	s.log.Debug("prompt answered",
		"model", resp.Model,
		"stop_reason", resp.StopReason,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
	)
	return resp.Text(), nil
}

// Compose builds the user message Ask would send, without sending it.
func (s *Session) Compose(text string) (llm.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return llm.Message{}, ErrEmptyPrompt
	}
	content := text
	if s.preamble != "" {
		content = s.preamble + "\n\n" + text
	}
	return llm.Message{Role: llm.RoleUser, Content: content}, nil
}
