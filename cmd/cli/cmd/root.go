package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"support-triage-agent/internal/infrastructure/config"
	signalhandler "support-triage-agent/internal/infrastructure/signal"
)

// global config shared between commands.
var cfg *config.Config

type configKey struct{}

func contextWithConfig(ctx context.Context, c *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, c)
}

func configFromContext(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return nil
}

type interruptHandlerKey struct{}

func contextWithInterruptHandler(ctx context.Context, h *signalhandler.InterruptHandler) context.Context {
	return context.WithValue(ctx, interruptHandlerKey{}, h)
}

// InterruptHandlerFromContext retrieves the interrupt handler, if any, from
// the command context.
func InterruptHandlerFromContext(ctx context.Context) *signalhandler.InterruptHandler {
	if h, ok := ctx.Value(interruptHandlerKey{}).(*signalhandler.InterruptHandler); ok {
		return h
	}
	return nil
}

// executeChat runs the interactive triage loop.
// This is set by chat.go during initialization.
var executeChat func(cmd *cobra.Command, args []string) error

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "support-triage-agent",
	Short: "AI-assisted hardware support triage",
	Long: `Support Triage Agent walks a user through describing a hardware
problem, narrows the description with follow-up questions, proposes likely
causes with remediation steps, and escalates unresolved problems as support
cases.

Run without a subcommand for an interactive terminal session, or use
'serve' to expose the same conversation over HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		cmd.SetContext(contextWithConfig(cmd.Context(), cfg))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Interactive chat is the default mode
		if executeChat != nil {
			return executeChat(cmd, args)
		}
		return errors.New("chat functionality not initialized")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Double Ctrl+C exits; the first press only warns
	handler := signalhandler.NewInterruptHandler(2 * time.Second)
	handler.Start()
	defer handler.Stop()

	ctx := contextWithInterruptHandler(handler.Context(), handler)
	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

// GetConfig retrieves the configuration from the command context.
func GetConfig(cmd *cobra.Command) *config.Config {
	if c := configFromContext(cmd.Context()); c != nil {
		return c
	}
	return cfg
}

func init() {
	rootCmd.PersistentFlags().String("model", "claude-sonnet-4-5", "AI model to use for analyst requests")
	rootCmd.PersistentFlags().Int("max-tokens", 1024, "Maximum tokens to generate in analyst responses")
	rootCmd.PersistentFlags().Duration("analyst-timeout", 15*time.Second, "Per-call analyst timeout")
	rootCmd.PersistentFlags().String("catalog", "", "Path to a YAML cause catalog (embedded default when empty)")
	rootCmd.PersistentFlags().String("case-dir", "./cases", "Directory for escalated case records")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for session storage (in-memory when empty)")

	bindings := map[string]string{
		"model":          "model",
		"maxTokens":      "max-tokens",
		"analystTimeout": "analyst-timeout",
		"catalog":        "catalog",
		"caseDir":        "case-dir",
		"redisAddr":      "redis-addr",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", flag, err)
		}
	}
}
