// Package matchbuilder wires a matchsvc.Service from configuration. Each
// collaborator falls back to an in-process implementation when its backing
// service is not configured.
package matchbuilder

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/wager-chess/internal/archive"
	"github.com/park285/wager-chess/internal/chess"
	"github.com/park285/wager-chess/internal/config"
	"github.com/park285/wager-chess/internal/events"
	"github.com/park285/wager-chess/internal/matchsvc"
	"github.com/park285/wager-chess/internal/wager"
	"github.com/park285/wager-chess/internal/wallet"
)

const pingTimeout = 5 * time.Second

type Deps struct {
	Service *matchsvc.Service
	Engine  *chess.Engine
	Wallet  wallet.Wallet
	Archive archive.Archive
	Events  events.Sink
	Redis   *redis.Client

	closers []func() error
}

// Close releases everything New opened, last opened first.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}
	ok := false
	defer func() {
		if !ok {
			_ = d.Close()
		}
	}()

	if path := strings.TrimSpace(cfg.ChessPresetFile); path != "" {
		names, err := chess.LoadPresetFile(path)
		if err != nil {
			return nil, err
		}
		logger.Info("preset_file_loaded", zap.String("path", path), zap.Strings("presets", names))
	}
	d.Engine = chess.NewEngine(chess.EngineConfig{Workers: cfg.SearchWorkers, Logger: logger})
	d.closers = append(d.closers, d.Engine.Close)

	var store matchsvc.Store = matchsvc.NewMemoryStore()
	var sinks events.Multi
	d.Wallet = wallet.NewMemory()

	if raw := strings.TrimSpace(cfg.RedisURL); raw != "" {
		opts, err := parseRedisURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		d.closers = append(d.closers, rdb.Close)
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		d.Redis = rdb
		store = matchsvc.NewRedisStore(rdb, cfg.MatchTTL)
		d.Wallet = wallet.NewRedis(rdb)
		sinks = append(sinks, events.NewRedis(rdb, cfg.EventsChannelPrefix))
	}

	if base := strings.TrimSpace(cfg.WalletURL); base != "" {
		token := cfg.WalletToken
		d.Wallet = wallet.NewHTTP(base, wallet.WithHeaderProvider(func() map[string]string {
			if token == "" {
				return nil
			}
			return map[string]string{"Authorization": "Bearer " + token}
		}))
	}

	if wsURL := strings.TrimSpace(cfg.EventsWSURL); wsURL != "" {
		token := cfg.EventsToken
		ws := events.NewWebSocket(wsURL, func() map[string]string {
			return map[string]string{"X-Gateway-Token": token}
		}, logger)
		d.closers = append(d.closers, ws.Close)
		sinks = append(sinks, ws)
	}

	switch {
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		pg, err := archive.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pg.Close)
		d.Archive = pg
	case strings.TrimSpace(cfg.SQLitePath) != "":
		lite, err := archive.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, lite.Close)
		d.Archive = lite
	default:
		d.Archive = archive.NewMemory()
	}

	switch len(sinks) {
	case 0:
		d.Events = events.Nop()
	case 1:
		d.Events = sinks[0]
	default:
		d.Events = sinks
	}

	svc, err := matchsvc.New(matchsvc.Config{
		Store:             store,
		Wallet:            d.Wallet,
		Engine:            d.Engine,
		Ledger:            wager.Ledger{FeeBasisPoints: cfg.WagerFeeBPS, FeeAccount: cfg.WagerFeeAccount},
		Archive:           d.Archive,
		Events:            d.Events,
		HouseAccount:      cfg.HouseAccountID,
		DefaultDifficulty: cfg.ChessDefaultDifficulty,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}
	d.Service = svc
	ok = true
	return d, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Host
	if u.Port() == "" {
		host = u.Hostname() + ":6379"
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("redis db %q: %w", p, err)
		}
		db = n
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: host, Username: u.User.Username(), Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: u.Hostname(), MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
