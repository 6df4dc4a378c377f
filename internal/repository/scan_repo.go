package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScanRepository struct {
	db *pgxpool.Pool
}

func NewScanRepository(db *pgxpool.Pool) *ScanRepository {
	return &ScanRepository{db: db}
}

// UserScanTx exposes the ledger and progression operations that must run
// under the per-user lock. Implementations are transaction-scoped.
type UserScanTx interface {
	LastScanAt(ctx context.Context) (time.Time, bool, error)
	AppendScan(ctx context.Context, ev *domain.ScanEvent) error
	Progression(ctx context.Context) (domain.ProgressionRecord, bool, error)
	SaveProgression(ctx context.Context, rec domain.ProgressionRecord) error
}

// InUserTx runs fn inside a transaction that holds a row lock on the user,
// serializing the rate-limit read, the ledger append and the progression
// read-modify-write against concurrent scans by the same user. Any error
// from fn rolls the whole unit back: nothing is committed for a rejected
// request.
func (r *ScanRepository) InUserTx(ctx context.Context, userID string, fn func(tx UserScanTx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	if err := fn(&userScanTx{tx: tx, userID: userID}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type userScanTx struct {
	tx     pgx.Tx
	userID string
}

func (t *userScanTx) LastScanAt(ctx context.Context) (time.Time, bool, error) {
	var ts time.Time
	err := t.tx.QueryRow(ctx,
		`SELECT scanned_at FROM scan_events
		 WHERE user_id = $1
		 ORDER BY scanned_at DESC, id DESC
		 LIMIT 1`,
		t.userID,
	).Scan(&ts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return ts, true, nil
}

func (t *userScanTx) AppendScan(ctx context.Context, ev *domain.ScanEvent) error {
	return t.tx.QueryRow(ctx,
		`INSERT INTO scan_events (user_id, location_id, floor_label, floor_level, scanned_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		ev.UserID, ev.LocationID, ev.FloorLabel, ev.FloorLevel, ev.ScannedAt,
	).Scan(&ev.ID)
}

func (t *userScanTx) Progression(ctx context.Context) (domain.ProgressionRecord, bool, error) {
	var rec domain.ProgressionRecord
	var rank *int
	err := t.tx.QueryRow(ctx,
		`SELECT user_id, points, level, points_to_next, rank
		 FROM progression
		 WHERE user_id = $1`,
		t.userID,
	).Scan(&rec.UserID, &rec.Points, &rec.Level, &rec.PointsToNext, &rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProgressionRecord{}, false, nil
		}
		return domain.ProgressionRecord{}, false, err
	}
	if rank != nil {
		rec.Rank = *rank
	}
	return rec, true, nil
}

func (t *userScanTx) SaveProgression(ctx context.Context, rec domain.ProgressionRecord) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO progression (user_id, points, level, points_to_next)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET points = EXCLUDED.points,
		     level = EXCLUDED.level,
		     points_to_next = EXCLUDED.points_to_next`,
		rec.UserID, rec.Points, rec.Level, rec.PointsToNext,
	)
	return err
}

// FloorsClimbed returns the sum of floor levels of a user's accepted scans.
func (r *ScanRepository) FloorsClimbed(ctx context.Context, userID string) (int, error) {
	var floors int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(floor_level), 0) FROM scan_events WHERE user_id = $1`,
		userID,
	).Scan(&floors)
	return floors, err
}

// FloorsClimbedGlobal returns the sum of floor levels across all users.
func (r *ScanRepository) FloorsClimbedGlobal(ctx context.Context) (int, error) {
	var floors int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(floor_level), 0) FROM scan_events`,
	).Scan(&floors)
	return floors, err
}

// RecentScans returns a user's latest accepted scans, newest first.
func (r *ScanRepository) RecentScans(ctx context.Context, userID string, limit int) ([]*domain.ScanEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, location_id, floor_label, floor_level, scanned_at
		 FROM scan_events
		 WHERE user_id = $1
		 ORDER BY scanned_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.ScanEvent
	for rows.Next() {
		var ev domain.ScanEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.LocationID, &ev.FloorLabel, &ev.FloorLevel, &ev.ScannedAt); err != nil {
			return nil, err
		}
		result = append(result, &ev)
	}
	return result, rows.Err()
}
