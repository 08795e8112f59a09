package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: `
CREATE TABLE IF NOT EXISTS match_results (
    match_id    TEXT PRIMARY KEY,
    white_id    TEXT NOT NULL,
    black_id    TEXT NOT NULL,
    white_stake BIGINT NOT NULL,
    black_stake BIGINT NOT NULL,
    pot         BIGINT NOT NULL,
    difficulty  TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    winner_id   TEXT NOT NULL DEFAULT '',
    moves_uci   JSONB NOT NULL,
    moves_san   JSONB NOT NULL,
    final_fen   TEXT NOT NULL,
    settlement  JSONB NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    ended_at    TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS match_results_white ON match_results (white_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS match_results_black ON match_results (black_id, ended_at DESC);
`,
	upsert: `INSERT INTO match_results (` + columns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (match_id) DO UPDATE SET
			status = EXCLUDED.status,
			outcome = EXCLUDED.outcome,
			winner_id = EXCLUDED.winner_id,
			moves_uci = EXCLUDED.moves_uci,
			moves_san = EXCLUDED.moves_san,
			final_fen = EXCLUDED.final_fen,
			settlement = EXCLUDED.settlement,
			ended_at = EXCLUDED.ended_at,
			duration_ms = EXCLUDED.duration_ms`,
	get: `SELECT ` + columns + ` FROM match_results WHERE match_id = $1`,
	recent: `SELECT ` + columns + ` FROM match_results
		WHERE white_id = $1 OR black_id = $1
		ORDER BY ended_at DESC, match_id ASC LIMIT $2`,
}

type Postgres struct{ sqlArchive }

// OpenPostgres connects to databaseURL and ensures the results table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: postgres ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresDialect.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: create schema: %w", err)
	}
	return &Postgres{sqlArchive{db: db, d: postgresDialect}}, nil
}
