package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"kanji-quiz/internal/domain"
)

// PgResultRepository guarda un resultado por sesion. Ademas del JSON de rasgos
// persiste el vector ordenado en trait_embedding (pgvector) para analitica.
type PgResultRepository struct {
	pool       *pgxpool.Pool
	dimensions []string
}

func NewPgResultRepository(pool *pgxpool.Pool, dimensions []string) *PgResultRepository {
	return &PgResultRepository{pool: pool, dimensions: dimensions}
}

func (r *PgResultRepository) InsertIfAbsent(ctx context.Context, result domain.Result) (domain.Result, bool, error) {
	const query = `
		INSERT INTO quiz_results (
			session_id, candidate_id, subtype, labels, traits, trait_embedding,
			kanji, reading, meaning, explanation, catalog_version, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (session_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		result.SessionID,
		result.CandidateID,
		result.Subtype,
		result.Labels,
		result.Traits,
		pgvector.NewVector(result.Traits.Slice(r.dimensions)),
		result.Kanji,
		result.Reading,
		result.Meaning,
		result.Explanation,
		result.CatalogVersion,
		result.GeneratedAt,
	)
	if err != nil {
		return domain.Result{}, false, err
	}
	if tag.RowsAffected() == 1 {
		return result, true, nil
	}
	stored, err := r.GetBySessionID(ctx, result.SessionID)
	if err != nil {
		return domain.Result{}, false, err
	}
	return stored, false, nil
}

func (r *PgResultRepository) GetBySessionID(ctx context.Context, sessionID string) (domain.Result, error) {
	const query = `
		SELECT session_id::text, candidate_id, subtype, labels, traits,
			kanji, reading, meaning, explanation, catalog_version, generated_at
		FROM quiz_results
		WHERE session_id = $1
	`
	var res domain.Result
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&res.SessionID,
		&res.CandidateID,
		&res.Subtype,
		&res.Labels,
		&res.Traits,
		&res.Kanji,
		&res.Reading,
		&res.Meaning,
		&res.Explanation,
		&res.CatalogVersion,
		&res.GeneratedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, ErrNotFound
	}
	if err != nil {
		return domain.Result{}, err
	}
	res.GeneratedAt = res.GeneratedAt.UTC()
	return res, nil
}
