package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const refTTL = 30 * 24 * time.Hour

// Both scripts return 0 when applied, 1 when the reference was seen before
// and -1 when the balance is short.
var (
	debitScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then return 1 end
local bal = tonumber(redis.call('GET', KEYS[1]) or '0')
if bal < tonumber(ARGV[1]) then return -1 end
redis.call('DECRBY', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], 'debit', 'EX', ARGV[2])
return 0
`)
	creditScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then return 1 end
redis.call('INCRBY', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], 'credit', 'EX', ARGV[2])
return 0
`)
)

// Redis keeps balances as integer keys and applies each mutation in a Lua
// script so the reference check and the balance change are atomic.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb, prefix: "wallet:"} }

func (w *Redis) keyBalance(player string) string {
	return w.prefix + "balance:" + strings.TrimSpace(player)
}
func (w *Redis) keyRef(ref string) string { return w.prefix + "ref:" + strings.TrimSpace(ref) }

// Deposit seeds a balance outside the reference log.
func (w *Redis) Deposit(ctx context.Context, player string, amount int64) error {
	return w.rdb.IncrBy(ctx, w.keyBalance(player), amount).Err()
}

func (w *Redis) Debit(ctx context.Context, player string, amount int64, ref string) error {
	if err := checkArgs(player, amount, ref); err != nil {
		return err
	}
	code, err := debitScript.Run(ctx, w.rdb, []string{w.keyBalance(player), w.keyRef(ref)}, amount, int64(refTTL/time.Second)).Int64()
	if err != nil {
		return fmt.Errorf("wallet debit %s: %w", ref, err)
	}
	if code < 0 {
		return fmt.Errorf("%w: %s needs %d", ErrInsufficientFunds, player, amount)
	}
	return nil
}

func (w *Redis) Credit(ctx context.Context, player string, amount int64, ref string) error {
	if err := checkArgs(player, amount, ref); err != nil {
		return err
	}
	if _, err := creditScript.Run(ctx, w.rdb, []string{w.keyBalance(player), w.keyRef(ref)}, amount, int64(refTTL/time.Second)).Int64(); err != nil {
		return fmt.Errorf("wallet credit %s: %w", ref, err)
	}
	return nil
}

func (w *Redis) Balance(ctx context.Context, player string) (int64, error) {
	n, err := w.rdb.Get(ctx, w.keyBalance(player)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
