package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kanji-quiz/internal/domain"
)

// PgSessionRepository implementa SessionRepository usando pgxpool.
type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Ensure(ctx context.Context, session domain.Session) (bool, error) {
	const query = `
		INSERT INTO quiz_sessions (id, language, user_name, client_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		session.ID,
		session.Language,
		session.UserName,
		session.ClientHash,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id::text, language, user_name, client_hash, created_at, updated_at
		FROM quiz_sessions
		WHERE id = $1
	`
	var session domain.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.Language,
		&session.UserName,
		&session.ClientHash,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, ErrNotFound
	}
	return session, err
}

func (r *PgSessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE quiz_sessions SET updated_at = $2
		WHERE id = $1 AND updated_at < $2
	`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}
