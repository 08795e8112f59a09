package archive

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
CREATE TABLE IF NOT EXISTS match_results (
    match_id    TEXT PRIMARY KEY,
    white_id    TEXT NOT NULL,
    black_id    TEXT NOT NULL,
    white_stake INTEGER NOT NULL,
    black_stake INTEGER NOT NULL,
    pot         INTEGER NOT NULL,
    difficulty  TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    winner_id   TEXT NOT NULL DEFAULT '',
    moves_uci   TEXT NOT NULL,
    moves_san   TEXT NOT NULL,
    final_fen   TEXT NOT NULL,
    settlement  TEXT NOT NULL,
    started_at  TIMESTAMP NOT NULL,
    ended_at    TIMESTAMP NOT NULL,
    duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS match_results_white ON match_results (white_id, ended_at);
CREATE INDEX IF NOT EXISTS match_results_black ON match_results (black_id, ended_at);
`,
	upsert: `INSERT INTO match_results (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			status = excluded.status,
			outcome = excluded.outcome,
			winner_id = excluded.winner_id,
			moves_uci = excluded.moves_uci,
			moves_san = excluded.moves_san,
			final_fen = excluded.final_fen,
			settlement = excluded.settlement,
			ended_at = excluded.ended_at,
			duration_ms = excluded.duration_ms`,
	get: `SELECT ` + columns + ` FROM match_results WHERE match_id = ?`,
	recent: `SELECT ` + columns + ` FROM match_results
		WHERE white_id = ?1 OR black_id = ?1
		ORDER BY ended_at DESC, match_id ASC LIMIT ?2`,
}

type SQLite struct{ sqlArchive }

// OpenSQLite opens (or creates) the archive database at path in WAL mode.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open sqlite: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("archive: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteDialect.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: create schema: %w", err)
	}
	return &SQLite{sqlArchive{db: db, d: sqliteDialect}}, nil
}
