package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/wager-chess/internal/match"
)

const columns = `match_id, white_id, black_id, white_stake, black_stake, pot, difficulty,
	status, outcome, winner_id, moves_uci, moves_san, final_fen, settlement,
	started_at, ended_at, duration_ms`

// dialect holds the statements that differ between SQLite and Postgres.
type dialect struct {
	name   string
	schema string
	upsert string
	get    string
	recent string
}

// sqlArchive implements Archive over database/sql for both drivers.
type sqlArchive struct {
	db *sql.DB
	d  dialect
}

func (a *sqlArchive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *sqlArchive) SaveResult(ctx context.Context, r Result) error {
	if strings.TrimSpace(r.MatchID) == "" {
		return errors.New("archive: match id required")
	}
	uci, err := json.Marshal(nonNil(r.MovesUCI))
	if err != nil {
		return err
	}
	san, err := json.Marshal(nonNil(r.MovesSAN))
	if err != nil {
		return err
	}
	settlement, err := json.Marshal(r.Settlement)
	if err != nil {
		return err
	}
	_, err = a.db.ExecContext(ctx, a.d.upsert,
		r.MatchID, r.WhiteID, r.BlackID,
		r.WhiteStake, r.BlackStake, r.Pot, r.Difficulty,
		string(r.Status), string(r.Outcome), r.WinnerID,
		string(uci), string(san), r.FinalFEN, string(settlement),
		r.StartedAt.UTC(), r.EndedAt.UTC(), r.Duration().Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("archive(%s): save %s: %w", a.d.name, r.MatchID, err)
	}
	return nil
}

func (a *sqlArchive) Get(ctx context.Context, matchID string) (Result, error) {
	r, err := scanResult(a.db.QueryRowContext(ctx, a.d.get, matchID))
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, matchID)
	}
	if err != nil {
		return Result{}, fmt.Errorf("archive(%s): get %s: %w", a.d.name, matchID, err)
	}
	return r, nil
}

func (a *sqlArchive) RecentByPlayer(ctx context.Context, playerID string, limit int) ([]Result, error) {
	rows, err := a.db.QueryContext(ctx, a.d.recent, playerID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("archive(%s): recent %s: %w", a.d.name, playerID, err)
	}
	defer rows.Close()
	out := make([]Result, 0)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("archive(%s): scan: %w", a.d.name, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (Result, error) {
	var (
		r                    Result
		status, outcome      string
		uci, san, settlement []byte
		startedAt, endedAt   time.Time
		durationMs           int64
	)
	if err := row.Scan(
		&r.MatchID, &r.WhiteID, &r.BlackID,
		&r.WhiteStake, &r.BlackStake, &r.Pot, &r.Difficulty,
		&status, &outcome, &r.WinnerID,
		&uci, &san, &r.FinalFEN, &settlement,
		&startedAt, &endedAt, &durationMs,
	); err != nil {
		return Result{}, err
	}
	r.Status = match.Status(status)
	r.Outcome = match.OutcomeKind(outcome)
	r.StartedAt = startedAt.UTC()
	r.EndedAt = endedAt.UTC()
	if err := json.Unmarshal(uci, &r.MovesUCI); err != nil {
		return Result{}, fmt.Errorf("moves_uci: %w", err)
	}
	if err := json.Unmarshal(san, &r.MovesSAN); err != nil {
		return Result{}, fmt.Errorf("moves_san: %w", err)
	}
	if err := json.Unmarshal(settlement, &r.Settlement); err != nil {
		return Result{}, fmt.Errorf("settlement: %w", err)
	}
	return r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
