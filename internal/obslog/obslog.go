// Package obslog holds the process-wide zap logger and builds it from
// LOG_* environment variables.
package obslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

func init() { global.Store(zap.NewNop()) }

// L returns the global logger. It discards everything until Init runs.
func L() *zap.Logger { return global.Load() }

// Replace swaps the global logger and returns a func restoring the old one.
func Replace(l *zap.Logger) (restore func()) {
	if l == nil {
		l = zap.NewNop()
	}
	prev := global.Swap(l)
	return func() { global.Store(prev) }
}

type Options struct {
	Level string
	// Console enables output to ConsoleWriter (stdout when nil).
	Console       bool
	ConsoleWriter io.Writer
	// File appends to this path when non-empty.
	File   string
	Caller bool
	// Format is one of legacy, console or json; anything else means legacy.
	Format string
}

// OptionsFromEnv reads LOG_LEVEL, LOG_TO_CONSOLE, LOG_TO_FILE, LOG_FILE,
// LOG_CALLER and LOG_FORMAT. File output is off unless LOG_TO_FILE=true.
func OptionsFromEnv() Options {
	o := Options{
		Level:   envOr("LOG_LEVEL", "info"),
		Console: envBool("LOG_TO_CONSOLE", true),
		Caller:  envBool("LOG_CALLER", false),
		Format:  envOr("LOG_FORMAT", "legacy"),
	}
	if envBool("LOG_TO_FILE", false) {
		o.File = strings.TrimSpace(envOr("LOG_FILE", filepath.Join("logs", "wagerchess.log")))
	}
	return o
}

func InitFromEnv() error { return Init(OptionsFromEnv()) }

func Init(o Options) error {
	l, err := Build(o)
	if err != nil {
		return err
	}
	global.Store(l)
	return nil
}

// Build tees every enabled output through one encoder format. With no
// output enabled it falls back to a development console logger. Legacy
// format always records the caller.
func Build(o Options) (*zap.Logger, error) {
	level := parseLevel(o.Level)
	format := strings.ToLower(strings.TrimSpace(o.Format))
	newEnc, ok := encoders[format]
	if !ok {
		format = "legacy"
		newEnc = encoders[format]
	}

	var sinks []zapcore.WriteSyncer
	if o.Console {
		w := o.ConsoleWriter
		if w == nil {
			w = os.Stdout
		}
		sinks = append(sinks, zapcore.AddSync(w))
	}
	if o.File != "" {
		f, err := openLogFile(o.File)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, f)
	}

	var core zapcore.Core
	if len(sinks) == 0 {
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(os.Stdout), level)
	} else {
		cores := make([]zapcore.Core, len(sinks))
		for i, s := range sinks {
			cores[i] = zapcore.NewCore(newEnc(), s, level)
		}
		core = zapcore.NewTee(cores...)
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if o.Caller || format == "legacy" {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...), nil
}

func openLogFile(path string) (zapcore.WriteSyncer, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return zapcore.Lock(f), nil
}

var encoders = map[string]func() zapcore.Encoder{
	"legacy": func() zapcore.Encoder {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.ConsoleSeparator = " | "
		return zapcore.NewConsoleEncoder(cfg)
	},
	"console": func() zapcore.Encoder {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	},
	"json": func() zapcore.Encoder {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	},
}

func parseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return zapcore.WarnLevel
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(envOr(k, "")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}
