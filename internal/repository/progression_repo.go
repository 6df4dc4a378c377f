package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProgressionRepository struct {
	db *pgxpool.Pool
}

func NewProgressionRepository(db *pgxpool.Pool) *ProgressionRepository {
	return &ProgressionRepository{db: db}
}

func (r *ProgressionRepository) Get(ctx context.Context, userID string) (*domain.ProgressionRecord, error) {
	var rec domain.ProgressionRecord
	var rank *int
	err := r.db.QueryRow(ctx,
		`SELECT user_id, points, level, points_to_next, rank
		 FROM progression
		 WHERE user_id = $1`,
		userID,
	).Scan(&rec.UserID, &rec.Points, &rec.Level, &rec.PointsToNext, &rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if rank != nil {
		rec.Rank = *rank
	}
	return &rec, nil
}

// RankedRecord is a progression record joined with the user's registration
// time, the deterministic tie-break key for ranking.
type RankedRecord struct {
	domain.ProgressionRecord
	RegisteredAt time.Time
}

// AllRecords returns every progression record with its tie-break key.
func (r *ProgressionRepository) AllRecords(ctx context.Context) ([]RankedRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT pr.user_id, pr.points, pr.level, pr.points_to_next, COALESCE(pr.rank, 0), u.created_at
		 FROM progression pr
		 JOIN users u ON u.id = pr.user_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RankedRecord
	for rows.Next() {
		var rec RankedRecord
		if err := rows.Scan(&rec.UserID, &rec.Points, &rec.Level, &rec.PointsToNext, &rec.Rank, &rec.RegisteredAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// SaveRanks persists a full rank assignment in one statement.
func (r *ProgressionRepository) SaveRanks(ctx context.Context, userIDs []string, ranks []int) error {
	if len(userIDs) != len(ranks) {
		return errors.New("userIDs and ranks length mismatch")
	}
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`UPDATE progression p
		 SET rank = assigned.rank
		 FROM (SELECT unnest($1::text[]) AS user_id, unnest($2::int[]) AS rank) assigned
		 WHERE p.user_id = assigned.user_id`,
		userIDs, ranks,
	)
	return err
}

// Top returns the highest-ranked records in rank order.
func (r *ProgressionRepository) Top(ctx context.Context, limit int) ([]domain.ProgressionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx,
		`SELECT user_id, points, level, points_to_next, COALESCE(rank, 0)
		 FROM progression
		 WHERE rank IS NOT NULL
		 ORDER BY rank ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Neighbors returns the records ranked immediately above and below the
// given rank, either may be nil at the edges of the board.
func (r *ProgressionRepository) Neighbors(ctx context.Context, rank int) (above, below *domain.ProgressionRecord, err error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, points, level, points_to_next, COALESCE(rank, 0)
		 FROM progression
		 WHERE rank IN ($1, $2)
		 ORDER BY rank ASC`,
		rank-1, rank+1,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, nil, err
	}
	for i := range recs {
		rec := recs[i]
		switch rec.Rank {
		case rank - 1:
			above = &rec
		case rank + 1:
			below = &rec
		}
	}
	return above, below, nil
}

func scanRecords(rows pgx.Rows) ([]domain.ProgressionRecord, error) {
	var result []domain.ProgressionRecord
	for rows.Next() {
		var rec domain.ProgressionRecord
		if err := rows.Scan(&rec.UserID, &rec.Points, &rec.Level, &rec.PointsToNext, &rec.Rank); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
