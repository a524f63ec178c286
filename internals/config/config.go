package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/viper"
)

// DefaultFile is read when no --config flag is given and it exists.
const DefaultFile = "baobab.yaml"

var ErrMissingAPIKey = errors.New("no Anthropic API key: set ANTHROPIC_API_KEY, llm.api_key or llm.api_key_param")

type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Docs    DocsConfig    `mapstructure:"docs"`
	Review  ReviewConfig  `mapstructure:"review"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	GitLab  GitLabConfig  `mapstructure:"gitlab"`
	Slack   SlackConfig   `mapstructure:"slack"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Log     LogConfig     `mapstructure:"log"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

type LLMConfig struct {
	APIKey      string `mapstructure:"api_key"`
	APIKeyParam string `mapstructure:"api_key_param"` // SSM parameter holding the key
	Model       string `mapstructure:"model"`
	MaxTokens   int64  `mapstructure:"max_tokens"`
	BaseURL     string `mapstructure:"base_url"`
}

type DocsConfig struct {
	Output string `mapstructure:"output"`
}

type ReviewConfig struct {
	TriggerLabel string `mapstructure:"trigger_label"`
	Addr         string `mapstructure:"addr"`
	GitHubSecret string `mapstructure:"github_secret"`
	GitLabSecret string `mapstructure:"gitlab_secret"`
}

type GitHubConfig struct {
	Token string `mapstructure:"token"`
}

type GitLabConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

type SlackConfig struct {
	BotToken      string `mapstructure:"bot_token"`
	AppToken      string `mapstructure:"app_token"`
	NotifyChannel string `mapstructure:"notify_channel"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"llm.api_key":           "",
	"llm.api_key_param":     "",
	"llm.model":             "claude-sonnet-4-20250514",
	"llm.max_tokens":        1024,
	"llm.base_url":          "",
	"docs.output":           "DOCUMENTATION.md",
	"review.trigger_label":  "baobab:review",
	"review.addr":           ":8080",
	"review.github_secret":  "",
	"review.gitlab_secret":  "",
	"github.token":          "",
	"gitlab.token":          "",
	"gitlab.base_url":       "",
	"slack.bot_token":       "",
	"slack.app_token":       "",
	"slack.notify_channel":  "",
	"tracing.otlp_endpoint": "",
	"tracing.sample_rate":   1.0,
	"log.level":             "info",
	"log.format":            "text",
}

// Load reads configuration from path (optional) and the environment.
// Environment variables use the BAOBAB_ prefix with dots replaced by
// underscores, e.g. BAOBAB_LLM_MODEL. A few well-known variables such as
// ANTHROPIC_API_KEY and GITHUB_TOKEN are honoured as well.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("BAOBAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases := map[string]string{
		"llm.api_key":     "ANTHROPIC_API_KEY",
		"github.token":    "GITHUB_TOKEN",
		"gitlab.token":    "GITLAB_TOKEN",
		"slack.bot_token": "SLACK_BOT_TOKEN",
		"slack.app_token": "SLACK_APP_TOKEN",
	}
	for key, env := range aliases {
		if err := v.BindEnv(key, "BAOBAB_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.File = path
	return &cfg, nil
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.LLM.MaxTokens <= 0 {
		warnings = append(warnings, fmt.Sprintf("llm.max_tokens %d is not positive, using the default", c.LLM.MaxTokens))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing.sample_rate %.2f is outside [0, 1]", c.Tracing.SampleRate))
	}
	if c.Slack.NotifyChannel != "" && c.Slack.BotToken == "" {
		warnings = append(warnings, "slack.notify_channel is set but slack.bot_token is empty")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("log.format %q is unknown, using text", c.Log.Format))
	}
	return warnings
}

type SecretSource interface {
	Secret(ctx context.Context, name string) (string, error)
}

// ResolveAPIKey makes sure LLM.APIKey is set, fetching it from the parameter
// named by LLM.APIKeyParam when needed. open is only called in that case.
func (c *Config) ResolveAPIKey(ctx context.Context, open func(context.Context) (SecretSource, error)) error {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey != "" {
		return nil
	}
	if c.LLM.APIKeyParam == "" {
		return ErrMissingAPIKey
	}

	src, err := open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMissingAPIKey, err)
	}
	key, err := src.Secret(ctx, c.LLM.APIKeyParam)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMissingAPIKey, err)
	}
	c.LLM.APIKey = strings.TrimSpace(key)
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: parameter %s is empty", ErrMissingAPIKey, c.LLM.APIKeyParam)
	}
	return nil
}

func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Describe renders the resolved settings as a table with secrets masked.
func (c *Config) Describe(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 60},
	})
	tw.AppendHeader(table.Row{"Setting", "Value"})

	file := c.File
	if file == "" {
		file = "(none)"
	}
	rows := []table.Row{
		{"config file", file},
		{"llm.api_key", mask(c.LLM.APIKey)},
		{"llm.api_key_param", orUnset(c.LLM.APIKeyParam)},
		{"llm.model", c.LLM.Model},
		{"llm.max_tokens", c.LLM.MaxTokens},
		{"llm.base_url", orUnset(c.LLM.BaseURL)},
		{"docs.output", c.Docs.Output},
		{"review.trigger_label", c.Review.TriggerLabel},
		{"review.addr", c.Review.Addr},
		{"review.github_secret", mask(c.Review.GitHubSecret)},
		{"review.gitlab_secret", mask(c.Review.GitLabSecret)},
		{"github.token", mask(c.GitHub.Token)},
		{"gitlab.token", mask(c.GitLab.Token)},
		{"gitlab.base_url", orUnset(c.GitLab.BaseURL)},
		{"slack.bot_token", mask(c.Slack.BotToken)},
		{"slack.app_token", mask(c.Slack.AppToken)},
		{"slack.notify_channel", orUnset(c.Slack.NotifyChannel)},
		{"tracing.otlp_endpoint", orUnset(c.Tracing.OTLPEndpoint)},
		{"tracing.sample_rate", c.Tracing.SampleRate},
		{"log.level", c.Log.Level},
		{"log.format", c.Log.Format},
	}
	tw.AppendRows(rows)
	tw.Render()
}

func mask(secret string) string {
	switch {
	case secret == "":
		return "(unset)"
	case len(secret) <= 8:
		return "********"
	default:
		return "********" + secret[len(secret)-4:]
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
