package matchsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/wager-chess/internal/match"
)

const defaultMatchTTL = 24 * time.Hour

// RedisStore keeps each session as a JSON match.Record under match:<id>
// plus a per-player set of active match ids. Saves run under WATCH so two
// processes cannot interleave writes to one match.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultMatchTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func matchKey(id string) string           { return "match:" + strings.TrimSpace(id) }
func activeIdxKey(playerID string) string { return "match:index:active:" + strings.TrimSpace(playerID) }

func (st *RedisStore) Load(ctx context.Context, matchID string) (*match.Session, error) {
	raw, err := st.rdb.Get(ctx, matchKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load match %s: %w", matchID, err)
	}
	return decodeSession(raw)
}

func decodeSession(raw []byte) (*match.Session, error) {
	var rec match.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", match.ErrCorruptRecord, err)
	}
	return match.FromRecord(rec)
}

func (st *RedisStore) Save(ctx context.Context, s *match.Session, expected int64) error {
	raw, err := json.Marshal(s.ToRecord())
	if err != nil {
		return fmt.Errorf("encode match %s: %w", s.ID, err)
	}
	key := matchKey(s.ID)

	err = st.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		var current int64
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var head struct {
				Version int64 `json:"version"`
			}
			if err := json.Unmarshal(cur, &head); err != nil {
				return fmt.Errorf("%w: %v", match.ErrCorruptRecord, err)
			}
			current = head.Version
		}
		if current != expected {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, st.ttl)
			for _, p := range []match.Participant{s.White, s.Black} {
				if p.Computer {
					continue
				}
				idx := activeIdxKey(p.ID)
				if s.Status.Terminal() {
					pipe.SRem(ctx, idx, s.ID)
					continue
				}
				pipe.SAdd(ctx, idx, s.ID)
				pipe.Expire(ctx, idx, st.ttl)
			}
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

func (st *RedisStore) ActiveIDs(ctx context.Context, playerID string) ([]string, error) {
	idx := activeIdxKey(playerID)
	ids, err := st.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		s, err := st.Load(ctx, id)
		if errors.Is(err, ErrMatchNotFound) {
			// expired match: prune the index entry
			_ = st.rdb.SRem(ctx, idx, id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		if !s.Status.Terminal() {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}
