// internal/database/match.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/domino/internal/cache"
	"github.com/jason-s-yu/domino/internal/models"
)

// Store persists finished matches and the historian's action batches.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// RecordMatch stores the final standings of a match and marks it completed.
func (s *Store) RecordMatch(ctx context.Context, rec models.MatchRecord) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertMatch := `
			INSERT INTO matches (id, room_id, status, rounds, winner_seat, end_time)
			VALUES ($1, $2, 'completed', $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET room_id = $2, status = 'completed', rounds = $3, winner_seat = $4, end_time = $5
		`
		if _, err := tx.Exec(ctx, upsertMatch, rec.MatchID, rec.RoomID, rec.Rounds, rec.WinnerSeat, rec.EndedAt); err != nil {
			return err
		}

		for _, seat := range rec.Seats {
			score := 0
			if seat.Index < len(rec.Scores) {
				score = rec.Scores[seat.Index]
			}
			q := `
				INSERT INTO match_seats (match_id, seat_index, seat_id, name, score, did_win)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (match_id, seat_index)
				DO UPDATE SET seat_id = $3, name = $4, score = $5, did_win = $6
			`
			if _, err := tx.Exec(ctx, q, rec.MatchID, seat.Index, seat.ID, seat.Name, score, seat.Index == rec.WinnerSeat); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx record match %s: %w", rec.MatchID, err)
	}
	return nil
}

// InsertActions writes a batch of action records in one transaction. Each record
// upserts its match row so actions can arrive before the match is recorded.
func (s *Store) InsertActions(ctx context.Context, records []cache.ActionRecord) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s/%d: %w", rec.MatchID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec cache.ActionRecord) error {
	upsertMatch := `
		INSERT INTO matches (id, room_id, status)
		VALUES ($1, $2, 'in_progress')
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertMatch, rec.MatchID, rec.RoomID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}

	var actor *uuid.UUID
	if rec.ActorSeatID != uuid.Nil {
		actor = &rec.ActorSeatID
	}
	insert := `
		INSERT INTO match_actions (match_id, action_index, actor_seat_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (match_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, insert, rec.MatchID, rec.ActionIndex, actor, rec.ActionType, payload, time.UnixMilli(rec.Timestamp))
	return err
}

// MarkAbandoned flags a match that stopped producing actions before it finished.
func (s *Store) MarkAbandoned(ctx context.Context, matchID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE matches
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		_, err := tx.Exec(ctx, q, matchID)
		return err
	})
}

// matchStatus returns the stored status of a match.
func (s *Store) matchStatus(ctx context.Context, matchID uuid.UUID) (string, error) {
	var status string
	err := s.pool.QueryRow(ctx, `SELECT status FROM matches WHERE id = $1`, matchID).Scan(&status)
	return status, err
}

// countActions returns how many actions are stored for a match.
func (s *Store) countActions(ctx context.Context, matchID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM match_actions WHERE match_id = $1`, matchID).Scan(&n)
	return n, err
}
