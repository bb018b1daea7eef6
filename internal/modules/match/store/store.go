package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

// MatchRecord is the durable row behind a match. Inserted when the match is
// created, finalized exactly once when it reaches Over.
type MatchRecord struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	PlayerA    int64         `db:"player_a" json:"playerA"`
	PlayerB    int64         `db:"player_b" json:"playerB"`
	ScoreA     int           `db:"score_a" json:"scoreA"`
	ScoreB     int           `db:"score_b" json:"scoreB"`
	Status     string        `db:"status" json:"status"`
	WinnerID   sql.NullInt64 `db:"winner_id" json:"winnerId"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
	FinishedAt sql.NullTime  `db:"finished_at" json:"finishedAt"`
}

type MatchStore struct {
	db *sql.DB
}

func NewMatchStore(db *sql.DB) *MatchStore {
	return &MatchStore{db}
}

func (s *MatchStore) Insert(ctx context.Context, snapshot domain.Snapshot) error {
	record := MatchRecord{
		ID:        snapshot.ID,
		PlayerA:   snapshot.PlayerA,
		PlayerB:   snapshot.PlayerB,
		ScoreA:    snapshot.ScoreA,
		ScoreB:    snapshot.ScoreB,
		Status:    string(snapshot.Status),
		CreatedAt: time.Now().UTC(),
	}

	const stmt = `
		INSERT INTO
			matches (id, player_a, player_b, score_a, score_b, status, created_at)
		VALUES
			(:id, :player_a, :player_b, :score_a, :score_b, :status, :created_at);`
	_, err := tql.Exec(ctx, s.db, stmt, record)
	return err
}

// Finish records the final outcome and folds it into both players' win/loss
// tallies. Runs in one transaction - either the whole outcome lands or none
// of it does.
func (s *MatchStore) Finish(ctx context.Context, snapshot domain.Snapshot) error {
	loser := snapshot.PlayerA
	if snapshot.Winner == snapshot.PlayerA {
		loser = snapshot.PlayerB
	}

	return core.Tx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		const matchStmt = `
			UPDATE
				matches
			SET
				score_a = $2, score_b = $3, status = $4, winner_id = $5, finished_at = $6
			WHERE
				id = $1;`
		_, err := tql.Exec(
			ctx,
			tx,
			matchStmt,
			snapshot.ID,
			snapshot.ScoreA,
			snapshot.ScoreB,
			string(domain.StatusOver),
			snapshot.Winner,
			time.Now().UTC(),
		)
		if err != nil {
			return err
		}

		const winnerStmt = `
			INSERT INTO
				player_stats (user_id, games_played, wins)
			VALUES
				($1, 1, 1)
			ON CONFLICT (user_id) DO UPDATE SET
				games_played = player_stats.games_played + 1,
				wins = player_stats.wins + 1;`
		if _, err := tql.Exec(ctx, tx, winnerStmt, snapshot.Winner); err != nil {
			return err
		}

		const loserStmt = `
			INSERT INTO
				player_stats (user_id, games_played, wins)
			VALUES
				($1, 1, 0)
			ON CONFLICT (user_id) DO UPDATE SET
				games_played = player_stats.games_played + 1;`
		_, err = tql.Exec(ctx, tx, loserStmt, loser)
		return err
	})
}

func (s *MatchStore) Find(ctx context.Context, matchID uuid.UUID) (MatchRecord, error) {
	const query = `
		SELECT
			*
		FROM
			matches
		WHERE
			id = $1;`
	return tql.QueryFirst[MatchRecord](ctx, s.db, query, matchID)
}

func (s *MatchStore) ListForUser(ctx context.Context, userID int64) ([]MatchRecord, error) {
	const query = `
		SELECT
			*
		FROM
			matches
		WHERE
			player_a = $1 OR player_b = $1
		ORDER BY
			created_at DESC;`
	return tql.Query[MatchRecord](ctx, s.db, query, userID)
}

// ListUnfinished returns matches that were live when the process last
// stopped. Restart recovery restores them as paused sessions.
func (s *MatchStore) ListUnfinished(ctx context.Context) ([]MatchRecord, error) {
	const query = `
		SELECT
			*
		FROM
			matches
		WHERE
			status <> $1;`
	return tql.Query[MatchRecord](ctx, s.db, query, string(domain.StatusOver))
}
