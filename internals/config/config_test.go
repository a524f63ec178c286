package config

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.File)
	assert.Equal(t, int64(1024), cfg.LLM.MaxTokens)
	assert.Equal(t, "DOCUMENTATION.md", cfg.Docs.Output)
	assert.Equal(t, "baobab:review", cfg.Review.TriggerLabel)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRate)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  model: claude-opus-4-1
  max_tokens: 2048
docs:
  output: docs/API.md
log:
  level: debug
`), 0o644))

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	t.Setenv("BAOBAB_LLM_MAX_TOKENS", "512")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "claude-opus-4-1", cfg.LLM.Model)
	assert.Equal(t, int64(512), cfg.LLM.MaxTokens, "env overrides file")
	assert.Equal(t, "sk-ant-env", cfg.LLM.APIKey)
	assert.Equal(t, "docs/API.md", cfg.Docs.Output)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("review:\n  addr: \":9090\"\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFile, cfg.File)
	assert.Equal(t, ":9090", cfg.Review.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "reading config")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		LLM:     LLMConfig{MaxTokens: 0},
		Tracing: TracingConfig{SampleRate: 1.5},
		Slack:   SlackConfig{NotifyChannel: "C1"},
		Log:     LogConfig{Format: "xml"},
	}
	warnings := cfg.Validate()
	require.Len(t, warnings, 4)
	assert.Contains(t, warnings[0], "max_tokens")
	assert.Contains(t, warnings[1], "sample_rate")
	assert.Contains(t, warnings[2], "bot_token")
	assert.Contains(t, warnings[3], "log.format")
}

type fakeSecrets struct {
	value string
	err   error
	asked string
}

func (f *fakeSecrets) Secret(_ context.Context, name string) (string, error) {
	f.asked = name
	return f.value, f.err
}

func TestResolveAPIKey(t *testing.T) {
	opened := false
	open := func(context.Context) (SecretSource, error) {
		opened = true
		return nil, errors.New("should not be called")
	}

	cfg := &Config{LLM: LLMConfig{APIKey: "sk-ant-direct"}}
	require.NoError(t, cfg.ResolveAPIKey(context.Background(), open))
	assert.False(t, opened)

	cfg = &Config{}
	require.ErrorIs(t, cfg.ResolveAPIKey(context.Background(), open), ErrMissingAPIKey)
	assert.False(t, opened)

	src := &fakeSecrets{value: "sk-ant-ssm"}
	cfg = &Config{LLM: LLMConfig{APIKeyParam: "/baobab/key"}}
	require.NoError(t, cfg.ResolveAPIKey(context.Background(), func(context.Context) (SecretSource, error) { return src, nil }))
	assert.Equal(t, "sk-ant-ssm", cfg.LLM.APIKey)
	assert.Equal(t, "/baobab/key", src.asked)

	cfg = &Config{LLM: LLMConfig{APIKeyParam: "/baobab/key"}}
	err := cfg.ResolveAPIKey(context.Background(), func(context.Context) (SecretSource, error) {
		return &fakeSecrets{err: errors.New("AccessDenied")}, nil
	})
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.ErrorContains(t, err, "AccessDenied")
}

func TestResolveAPIKey_TrimsWhitespace(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{APIKey: "  sk-ant-file\n"}}
	require.NoError(t, cfg.ResolveAPIKey(context.Background(), nil))
	assert.Equal(t, "sk-ant-file", cfg.LLM.APIKey)

	cfg = &Config{LLM: LLMConfig{APIKey: " \n", APIKeyParam: "/baobab/key"}}
	src := &fakeSecrets{value: "sk-ant-ssm\n"}
	require.NoError(t, cfg.ResolveAPIKey(context.Background(), func(context.Context) (SecretSource, error) { return src, nil }))
	assert.Equal(t, "sk-ant-ssm", cfg.LLM.APIKey)

	cfg = &Config{LLM: LLMConfig{APIKeyParam: "/baobab/key"}}
	err := cfg.ResolveAPIKey(context.Background(), func(context.Context) (SecretSource, error) {
		return &fakeSecrets{value: "  "}, nil
	})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestDescribe_MasksSecrets(t *testing.T) {
	cfg := &Config{
		LLM:    LLMConfig{APIKey: "sk-ant-abcdefgh1234", Model: "m", MaxTokens: 10},
		GitHub: GitHubConfig{Token: "short"},
	}
	var buf bytes.Buffer
	cfg.Describe(&buf)

	out := buf.String()
	assert.NotContains(t, out, "sk-ant-abcdefgh1234")
	assert.Contains(t, out, "********1234")
	assert.NotContains(t, out, "short")
	assert.Contains(t, out, "(unset)")
}

func TestLogLevel_Fallback(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, (&Config{Log: LogConfig{Level: "loud"}}).LogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{Log: LogConfig{Level: "warn"}}).LogLevel())
}
