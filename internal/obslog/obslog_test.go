package obslog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel, " WARN ": zapcore.WarnLevel,
		"warning": zapcore.WarnLevel, "error": zapcore.ErrorLevel,
		"": zapcore.InfoLevel, "nonsense": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", "")
	o := OptionsFromEnv()
	if o.Level != "debug" || o.File != filepath.Join("logs", "wagerchess.log") || !o.Console {
		t.Fatalf("options = %+v", o)
	}
	t.Setenv("LOG_TO_FILE", "false")
	if o := OptionsFromEnv(); o.File != "" {
		t.Fatalf("file output should be off: %+v", o)
	}
}

func TestBuildWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.log")
	logger, err := Build(Options{Level: "info", File: path, Format: "json"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("match_create", zap.String("match_id", "m1"))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, `"msg":"match_create"`) || !strings.Contains(out, `"match_id":"m1"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level")
	}
}

func TestConsoleWriterAndReplace(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Build(Options{Level: "warn", Console: true, ConsoleWriter: &buf, Format: "console"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	restore := Replace(logger)
	L().Info("quiet")
	L().Warn("match_settle_failed", zap.String("match_id", "m9"))
	restore()
	L().Warn("after restore")

	out := buf.String()
	if strings.Contains(out, "quiet") || strings.Contains(out, "after restore") {
		t.Fatalf("unexpected lines: %s", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "m9") {
		t.Fatalf("missing warn line: %s", out)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("LOG_CALLER", "1")
	t.Setenv("LOG_TO_CONSOLE", "no")
	o := OptionsFromEnv()
	if !o.Caller || o.Console {
		t.Fatalf("options = %+v", o)
	}
}
