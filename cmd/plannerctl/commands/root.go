// Package commands implements the plannerctl subcommands.
package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/credentials"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options holds the flags shared by every subcommand.
type options struct {
	output   string
	provider string
	model    string
	baseURL  string
	timeout  time.Duration
	debug    bool

	// lookupKey and newGenerator are replaced in tests.
	lookupKey    config.KeyLookup
	newGenerator func(o *options, log *zap.Logger) (ai.Generator, error)
	now          func() time.Time
}

// NewRootCmd builds the plannerctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{
		lookupKey:    credentials.GetAPIKey,
		newGenerator: defaultGenerator,
		now:          time.Now,
	})
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "plannerctl",
		Short:         "Offline tools for the study planner",
		Long:          "Run the planner's classification, prioritization and generation steps against YAML fixtures, and manage the stored AI API key.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.output, "output", "o", outputAuto, "Output format: auto, table or json")
	flags.StringVar(&opts.provider, "provider", envOr("AI_PROVIDER", "openai"), "AI provider")
	flags.StringVar(&opts.model, "model", os.Getenv("AI_MODEL"), "AI model (provider default when empty)")
	flags.StringVar(&opts.baseURL, "base-url", os.Getenv("AI_BASE_URL"), "AI provider base URL")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Timeout for one generation")
	flags.BoolVar(&opts.debug, "debug", false, "Log generation requests and responses to stderr")

	root.AddCommand(
		newClassifyCmd(opts),
		newPrioritizeCmd(opts),
		newTrendCmd(opts),
		newScheduleCmd(opts),
		newBreakdownCmd(opts),
		newKeyCmd(opts),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// apiKey returns OPENAI_API_KEY or the keyring entry, empty when neither is set.
func (o *options) apiKey() string {
	cfg := &config.Config{OpenAIKey: os.Getenv("OPENAI_API_KEY")}
	cfg.ResolveAPIKey(o.lookupKey)
	return cfg.OpenAIKey
}

func (o *options) providerConfig() map[string]string {
	return map[string]string{
		"api_key":         o.apiKey(),
		"base_url":        o.baseURL,
		"model":           o.model,
		"timeout_seconds": strconv.Itoa(int(o.timeout / time.Second)),
	}
}

func defaultGenerator(o *options, log *zap.Logger) (ai.Generator, error) {
	cfg := o.providerConfig()
	if cfg["api_key"] == "" {
		return nil, config.ErrNoAPIKey
	}
	return ai.NewGenerator(o.provider, cfg, log, o.debug)
}

// commandLogger writes to stderr so it never mixes with command output.
func (o *options) commandLogger() *zap.Logger {
	if !o.debug {
		return zap.NewNop()
	}
	log, err := logger.NewDevelopmentLogger(true)
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// plannerService builds a planner. When allowOffline is set a missing key
// yields a service that always falls back.
func (o *options) plannerService(cmd *cobra.Command, allowOffline bool) (*planner.Service, error) {
	log := o.commandLogger()
	gen, err := o.newGenerator(o, log)
	if err != nil {
		if !allowOffline {
			return nil, err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; using offline fallbacks\n", err)
		gen = nil
	}
	return planner.NewService(gen, log, planner.WithClock(o.now)), nil
}

func (o *options) printer(w io.Writer) (*printer, error) {
	return newPrinter(w, o.output)
}
