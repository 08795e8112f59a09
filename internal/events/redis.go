package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis publishes each update on "<prefix><match id>" and on the shared
// "<prefix>all" channel.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(rdb *redis.Client, prefix string) *Redis {
	if strings.TrimSpace(prefix) == "" {
		prefix = "match:events:"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) MatchChannel(matchID string) string { return r.prefix + strings.TrimSpace(matchID) }
func (r *Redis) AllChannel() string                 { return r.prefix + "all" }

func (r *Redis) Publish(ctx context.Context, u StateUpdate) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	pipe := r.rdb.Pipeline()
	pipe.Publish(ctx, r.MatchChannel(u.MatchID), raw)
	pipe.Publish(ctx, r.AllChannel(), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %s: %w", u.MatchID, err)
	}
	return nil
}
