package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"kanji-quiz/internal/domain"
)

// PgAnswerRepository apoya la unicidad en la clave primaria (session_id, question_id).
type PgAnswerRepository struct {
	pool *pgxpool.Pool
}

func NewPgAnswerRepository(pool *pgxpool.Pool) *PgAnswerRepository {
	return &PgAnswerRepository{pool: pool}
}

func (r *PgAnswerRepository) InsertIfAbsent(ctx context.Context, answer domain.Answer) error {
	const query = `
		INSERT INTO quiz_answers (session_id, question_id, option_id, answered_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, question_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		answer.SessionID,
		answer.QuestionID,
		answer.OptionID,
		answer.AnsweredAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *PgAnswerRepository) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	const query = `
		SELECT session_id::text, question_id, option_id, answered_at
		FROM quiz_answers
		WHERE session_id = $1
		ORDER BY answered_at ASC, question_id ASC
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.SessionID, &a.QuestionID, &a.OptionID, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return answers, nil
}
