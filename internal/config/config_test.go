package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HouseAccountID != "house" || cfg.ChessDefaultDifficulty != "medium" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.MatchTTL != 24*time.Hour || cfg.EventsChannelPrefix != "match:events:" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REDIS_URL", " redis://localhost:6379/2 ")
	t.Setenv("SEARCH_WORKERS", "3")
	t.Setenv("WAGER_FEE_BPS", "250")
	t.Setenv("WAGER_FEE_ACCOUNT", "fees")
	t.Setenv("MATCH_TTL", "90m")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RedisURL != "redis://localhost:6379/2" || cfg.SearchWorkers != 3 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.WagerFeeBPS != 250 || cfg.WagerFeeAccount != "fees" || cfg.MatchTTL != 90*time.Minute {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	body := "house_account_id: bank\nchess_default_difficulty: hard\nsqlite_path: results.db\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CHESS_DEFAULT_DIFFICULTY", "easy")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HouseAccountID != "bank" || cfg.SQLitePath != "results.db" {
		t.Fatalf("file not applied: %+v", cfg)
	}
	if cfg.ChessDefaultDifficulty != "easy" {
		t.Fatalf("env should win over file, got %q", cfg.ChessDefaultDifficulty)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("explicit missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cases := map[string]string{
		"WAGER_FEE_BPS":  "20000",
		"SEARCH_WORKERS": "-1",
		"MATCH_TTL":      "0s",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := Load(""); err == nil {
				t.Fatalf("%s=%s should fail", k, v)
			}
		})
	}
	t.Run("fee without account", func(t *testing.T) {
		t.Setenv("WAGER_FEE_BPS", "100")
		if _, err := Load(""); err == nil {
			t.Fatalf("fee without account should fail")
		}
	})
	t.Run("two archives", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://x")
		t.Setenv("SQLITE_PATH", "a.db")
		if _, err := Load(""); err == nil {
			t.Fatalf("both archives should fail")
		}
	})
}
