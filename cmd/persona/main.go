package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"personabot/internal/config"
	"personabot/internal/logging"
	"personabot/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	logger *zap.Logger
	cfg    *config.Config
	tracer *tracing.Provider
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "persona",
	Short: "Persona assistant: chat, research, music picks and voice",
	Long: `persona answers as a configured persona. It introduces itself, researches
topics on the web, recommends music and holds a free conversation, in text
or by voice.

Run without arguments to choose a mode from the start-up menu.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runMenu)
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive text chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runChat)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Produce a single response and exit",
	Long: `Sends one message and prints the reply. Without arguments the message
is read from the terminal.

Example:
  persona ask research quantum error correction`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runAsk(ctx, a, joinArgs(args))
		})
	},
}

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Check provider, persona, capabilities, search and voice engines",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runSelfTest)
	},
}

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Voice chat: record, transcribe, reply, speak",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runVoice)
	},
}

var micCheckCmd = &cobra.Command{
	Use:   "mic-check",
	Short: "Record a short clip and print its transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runMicCheck)
	},
}

var ttsCheckCmd = &cobra.Command{
	Use:   "tts-check",
	Short: "Synthesize and play a sample sentence",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runTTSCheck)
	},
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve the persona over HTTP",
	Long: `Starts the message bridge. Requires ANTHROPIC_API_KEY and DOMAIN_NAME.

Endpoints:
  POST /api/message   {"message": "...", "conversation_id": "..."}
  GET  /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runBridge)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "persona %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "personabot.yaml", "Config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-turn timeout (default from config)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(selftestCmd)
	rootCmd.AddCommand(voiceCmd)
	rootCmd.AddCommand(micCheckCmd)
	rootCmd.AddCommand(ttsCheckCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnFinalize(teardown)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// setup loads configuration and starts logging and tracing.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	var err error
	logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.TurnTimeout = timeout.String()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Initialize(logging.Config{
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.Format == "json",
		Dir:        cfg.Logging.Dir,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return err
	}

	tracer, err = tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	logger.Debug("configuration loaded",
		zap.String("config", configPath),
		zap.String("search", cfg.Search.Engine),
		zap.Duration("turn_timeout", cfg.GetTurnTimeout()),
		zap.Bool("tracing", tracer.Enabled()))
	return nil
}

// teardown flushes spans and log files. It runs after every command,
// including failed ones.
func teardown() {
	if tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := tracer.Shutdown(ctx); err != nil && logger != nil {
			logger.Warn("trace shutdown failed", zap.Error(err))
		}
		cancel()
		tracer = nil
	}
	logging.CloseAll()
	if logger != nil {
		_ = logger.Sync()
	}
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
