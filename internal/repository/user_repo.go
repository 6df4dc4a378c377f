package repository

import (
	"context"
	"errors"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, language, location_consent, created_at
		 FROM users
		 WHERE id = $1`,
		id,
	)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Language, &u.LocationConsent, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetOrCreate returns the user, creating the row on first contact with
// consent defaulted to false.
func (r *UserRepository) GetOrCreate(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (id)
		 VALUES ($1)
		 ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		 RETURNING id, language, location_consent, created_at`,
		id,
	).Scan(&u.ID, &u.Language, &u.LocationConsent, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetConsent creates-or-updates the consent record. This is the only
// consent mutator.
func (r *UserRepository) SetConsent(ctx context.Context, id string, granted bool) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, location_consent)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET location_consent = EXCLUDED.location_consent`,
		id, granted,
	)
	return err
}

func (r *UserRepository) SetLanguage(ctx context.Context, id, language string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET language = $1 WHERE id = $2`,
		language, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
