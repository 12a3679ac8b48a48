// Package logging provides config-driven categorized file-based logging for personabot.
// Logs are written to the configured logs directory with one file per category.
// Logging is off unless debug mode is enabled; before Initialize every call is a no-op.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Boot/initialization
	CategorySession Category = "session" // Interactive loops
	CategoryAPI     Category = "api"     // LLM API calls

	CategoryPerception   Category = "perception"   // Provider selection and probing
	CategoryArticulation Category = "articulation" // Output sanitizing and rendering
	CategoryDispatch     Category = "dispatch"     // Input classification
	CategoryCapability   Category = "capability"   // Capability prompt building and execution
	CategoryCrew         Category = "crew"         // Agent/task runs
	CategoryTools        Category = "tools"        // Tool execution (web search)
	CategoryVoice        Category = "voice"        // Voice session state machine
	CategoryTactile      Category = "tactile"      // External engine command execution
	CategoryBridge       Category = "bridge"       // Message bridge adapter
)

// Config controls the logging subsystem. It mirrors config.LoggingConfig
// to avoid an import cycle.
type Config struct {
	DebugMode  bool
	Level      string
	JSONFormat bool
	Dir        string
	Categories map[string]bool
}

// Logger writes printf-style messages for one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
	base     *zap.Logger
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	config    Config
	configMu  sync.RWMutex
	level     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize sets up the logs directory and stores the config.
// Should be called once at startup.
func Initialize(cfg Config) error {
	CloseAll()

	configMu.Lock()
	config = cfg
	configMu.Unlock()

	if !cfg.DebugMode {
		return nil
	}

	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
	}

	boot := Get(CategoryBoot)
	boot.Info("=== personabot logging initialized ===")
	boot.Info("Logs directory: %s", cfg.Dir)
	boot.Info("Log level: %s", lvl)
	if len(cfg.Categories) > 0 {
		enabled := 0
		for _, on := range cfg.Categories {
			if on {
				enabled++
			}
		}
		boot.Info("Enabled categories: %d/%d", enabled, len(cfg.Categories))
	}
	return nil
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return config.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !config.DebugMode {
		return false
	}
	if config.Categories == nil {
		return true
	}
	enabled, exists := config.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return nopLogger(category)
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	base, err := buildZap(category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log for %s: %v\n", category, err)
		return nopLogger(category)
	}
	l := &Logger{category: category, base: base, sugar: base.Sugar()}
	loggers[category] = l
	return l
}

func nopLogger(category Category) *Logger {
	nop := zap.NewNop()
	return &Logger{category: category, base: nop, sugar: nop.Sugar()}
}

// buildZap creates the zap logger for a category. Output goes to a dated
// per-category file when a directory is configured, stderr otherwise.
func buildZap(category Category) (*zap.Logger, error) {
	configMu.RLock()
	cfg := config
	configMu.RUnlock()

	encoding := "console"
	encCfg := zap.NewDevelopmentEncoderConfig()
	if cfg.JSONFormat {
		encoding = "json"
		encCfg = zap.NewProductionEncoderConfig()
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	output := "stderr"
	if cfg.Dir != "" {
		date := time.Now().Format("2006-01-02")
		output = filepath.Join(cfg.Dir, fmt.Sprintf("%s_%s.log", date, category))
	}

	zc := zap.Config{
		Level:            level,
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Named(string(category)), nil
}

// Zap exposes the underlying zap logger for structured call sites.
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a logger that adds the given key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	s := l.sugar.With(keysAndValues...)
	return &Logger{category: l.category, sugar: s, base: s.Desugar()}
}

// CloseAll flushes and forgets all category loggers (call at shutdown)
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		_ = l.base.Sync()
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

func Session(format string, args ...interface{})      { Get(CategorySession).Info(format, args...) }
func SessionDebug(format string, args ...interface{}) { Get(CategorySession).Debug(format, args...) }

func API(format string, args ...interface{})      { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...interface{}) { Get(CategoryAPI).Debug(format, args...) }

func Perception(format string, args ...interface{})      { Get(CategoryPerception).Info(format, args...) }
func PerceptionDebug(format string, args ...interface{}) { Get(CategoryPerception).Debug(format, args...) }
func PerceptionWarn(format string, args ...interface{})  { Get(CategoryPerception).Warn(format, args...) }
func PerceptionError(format string, args ...interface{}) { Get(CategoryPerception).Error(format, args...) }

func Articulation(format string, args ...interface{}) { Get(CategoryArticulation).Info(format, args...) }
func ArticulationDebug(format string, args ...interface{}) {
	Get(CategoryArticulation).Debug(format, args...)
}

func Dispatch(format string, args ...interface{})      { Get(CategoryDispatch).Info(format, args...) }
func DispatchDebug(format string, args ...interface{}) { Get(CategoryDispatch).Debug(format, args...) }

func Capability(format string, args ...interface{})      { Get(CategoryCapability).Info(format, args...) }
func CapabilityDebug(format string, args ...interface{}) { Get(CategoryCapability).Debug(format, args...) }
func CapabilityError(format string, args ...interface{}) { Get(CategoryCapability).Error(format, args...) }

func Crew(format string, args ...interface{})      { Get(CategoryCrew).Info(format, args...) }
func CrewDebug(format string, args ...interface{}) { Get(CategoryCrew).Debug(format, args...) }

func Tools(format string, args ...interface{})      { Get(CategoryTools).Info(format, args...) }
func ToolsDebug(format string, args ...interface{}) { Get(CategoryTools).Debug(format, args...) }
func ToolsWarn(format string, args ...interface{})  { Get(CategoryTools).Warn(format, args...) }

func Voice(format string, args ...interface{})      { Get(CategoryVoice).Info(format, args...) }
func VoiceDebug(format string, args ...interface{}) { Get(CategoryVoice).Debug(format, args...) }
func VoiceWarn(format string, args ...interface{})  { Get(CategoryVoice).Warn(format, args...) }
func VoiceError(format string, args ...interface{}) { Get(CategoryVoice).Error(format, args...) }

func Tactile(format string, args ...interface{})      { Get(CategoryTactile).Info(format, args...) }
func TactileDebug(format string, args ...interface{}) { Get(CategoryTactile).Debug(format, args...) }
func TactileError(format string, args ...interface{}) { Get(CategoryTactile).Error(format, args...) }

func Bridge(format string, args ...interface{})      { Get(CategoryBridge).Info(format, args...) }
func BridgeDebug(format string, args ...interface{}) { Get(CategoryBridge).Debug(format, args...) }
func BridgeError(format string, args ...interface{}) { Get(CategoryBridge).Error(format, args...) }

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
