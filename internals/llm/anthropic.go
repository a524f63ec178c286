package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel/trace"

	"github.com/jadenj13/baobab/internals/observability"
)

const (
	DefaultModel     = anthropic.ModelClaude4Sonnet20250514
	DefaultMaxTokens = 1024
)

type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	baseURL   string
	tracer    trace.Tracer
}

type Option func(*Client)

func WithModel(model anthropic.Model) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithMaxTokens(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithBaseURL points the client at another Messages API host (proxies, tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}

	// One attempt per call; failures surface to the caller as-is.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	c.client = anthropic.NewClient(reqOpts...)
	return c
}

func (c *Client) Model() string { return string(c.model) }

func (c *Client) MaxTokens() int64 { return c.maxTokens }

func (c *Client) Complete(ctx context.Context, system string, messages []Message) (*Response, error) {
	apiMessages, err := toAPIMessages(messages)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  apiMessages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	ctx, span := observability.StartLLMSpan(ctx, c.tracer, string(c.model))
	defer span.End()

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("anthropic api: %w", err)
	}
	observability.RecordLLMUsage(span, resp.Usage.InputTokens, resp.Usage.OutputTokens, time.Since(start))

	return fromAPIMessage(resp), nil
}

func fromAPIMessage(resp *anthropic.Message) *Response {
	blocks := make([]Block, 0, len(resp.Content))
	for _, b := range resp.Content {
		block := Block{Type: b.Type}
		if b.Type == "text" {
			block.Text = b.Text
		}
		blocks = append(blocks, block)
	}
	return &Response{
		Blocks:       blocks,
		Model:        string(resp.Model),
		StopReason:   string(resp.StopReason),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}
}

func toAPIMessages(messages []Message) ([]anthropic.MessageParam, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages cannot be empty")
	}

	out := make([]anthropic.MessageParam, 0, len(messages))
	for i, m := range messages {
		switch m.Role {
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			return nil, fmt.Errorf("message[%d]: unknown role %q", i, m.Role)
		}
	}

	if last := out[len(out)-1]; last.Role != anthropic.MessageParamRoleUser {
		return nil, fmt.Errorf("last message must be from user, got %q", last.Role)
	}

	return out, nil
}
