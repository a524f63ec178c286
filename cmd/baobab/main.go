package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/jadenj13/baobab/internals/config"
	"github.com/jadenj13/baobab/internals/llm"
	"github.com/jadenj13/baobab/internals/observability"
	"github.com/jadenj13/baobab/internals/paramstore"
	"github.com/jadenj13/baobab/internals/session"
)

var version = "dev"

// skipAPIKey marks commands that run without an Anthropic key.
const skipAPIKey = "baobab/skip-api-key"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout, os.Stderr).rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "baobab: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	cfgPath string

	cfg    *config.Config
	log    *slog.Logger
	tracer *observability.TracerProvider

	in       io.Reader
	out, err io.Writer

	// openSecrets builds the SSM-backed secret source on demand.
	openSecrets func(context.Context) (config.SecretSource, error)
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:  in,
		out: out,
		err: errOut,
		openSecrets: func(ctx context.Context) (config.SecretSource, error) {
			return paramstore.FromEnvironment(ctx)
		},
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "baobab",
		Short:         "Prompt tools on the Anthropic Messages API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.tracer != nil {
				return a.tracer.Shutdown(context.WithoutCancel(cmd.Context()))
			}
			return nil
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.err)
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")

	root.AddCommand(
		newChatCmd(a),
		newReviewCmd(a),
		newCommitCmd(a),
		newDocsCmd(a),
		newSlackCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	for _, w := range cfg.Validate() {
		fmt.Fprintf(a.err, "Warning: %s\n", w)
	}
	a.cfg = cfg
	a.log = newLogger(a.err, cfg)

	if !needsAPIKey(cmd) {
		return nil
	}

	// A missing key is fatal before anything talks to the network.
	if err := cfg.ResolveAPIKey(cmd.Context(), a.openSecrets); err != nil {
		return err
	}

	tc := observability.DefaultTracingConfig()
	tc.ServiceVersion = version
	tc.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	tc.SampleRate = cfg.Tracing.SampleRate
	tp, err := observability.InitTracing(cmd.Context(), tc)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.tracer = tp
	return nil
}

// needsAPIKey is false for commands that never call the model: those
// annotated with skipAPIKey and cobra's own help and completion commands.
func needsAPIKey(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[skipAPIKey]; ok {
			return false
		}
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (a *app) llmClient() *llm.Client {
	opts := []llm.Option{
		llm.WithModel(anthropic.Model(a.cfg.LLM.Model)),
		llm.WithMaxTokens(a.cfg.LLM.MaxTokens),
	}
	if a.cfg.LLM.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(a.cfg.LLM.BaseURL))
	}
	if a.tracer != nil {
		opts = append(opts, llm.WithTracer(a.tracer.Tracer()))
	}
	return llm.NewClient(a.cfg.LLM.APIKey, opts...)
}

func (a *app) session(preamble string) *session.Session {
	return session.New(a.llmClient(), preamble, session.WithLogger(a.log))
}
