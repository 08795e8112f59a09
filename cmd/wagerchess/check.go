package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/park285/wager-chess/internal/archive"
	"github.com/park285/wager-chess/internal/config"
	"github.com/park285/wager-chess/internal/matchbuilder"
	"github.com/park285/wager-chess/internal/wallet"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that configured backends are reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if !runChecks(ctx, cfg, cmd.ErrOrStderr()) {
			return fmt.Errorf("one or more checks failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// runChecks reports one line per configured backend and returns false if any
// of them failed. Unconfigured backends are reported as skipped.
func runChecks(ctx context.Context, cfg *config.AppConfig, w io.Writer) bool {
	ok := true
	report := func(name string, configured bool, err error) {
		switch {
		case !configured:
			fmt.Fprintf(w, "- %s: not configured\n", name)
		case err != nil:
			fmt.Fprintf(w, "✗ %s: %v\n", name, err)
			ok = false
		default:
			fmt.Fprintf(w, "✓ %s reachable\n", name)
		}
	}

	redisOnly := *cfg
	redisOnly.DatabaseURL, redisOnly.SQLitePath = "", ""
	redisOnly.WalletURL, redisOnly.EventsWSURL = "", ""
	d, err := matchbuilder.New(ctx, &redisOnly, nil)
	if err == nil {
		_ = d.Close()
	}
	report("redis", strings.TrimSpace(cfg.RedisURL) != "", err)

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pg, err := archive.OpenPostgres(ctx, cfg.DatabaseURL)
		if err == nil {
			_ = pg.Close()
		}
		report("postgres", true, err)
	} else {
		report("postgres", false, nil)
	}

	if strings.TrimSpace(cfg.SQLitePath) != "" {
		lite, err := archive.OpenSQLite(ctx, cfg.SQLitePath)
		if err == nil {
			_ = lite.Close()
		}
		report("sqlite", true, err)
	} else {
		report("sqlite", false, nil)
	}

	if strings.TrimSpace(cfg.WalletURL) != "" {
		wc := wallet.NewHTTP(cfg.WalletURL, wallet.WithRetry(1), wallet.WithHeaderProvider(func() map[string]string {
			return map[string]string{"Authorization": "Bearer " + cfg.WalletToken}
		}))
		_, err := wc.Balance(ctx, cfg.HouseAccountID)
		report("wallet", true, err)
	} else {
		report("wallet", false, nil)
	}
	return ok
}
