package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kanji-quiz/internal/domain"
)

// SQLiteStore implementa los tres repositorios sobre database/sql con el
// driver modernc.org/sqlite. Los tiempos se guardan en milisegundos UTC.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Stores() Stores {
	return Stores{Sessions: s, Answers: sqliteAnswers{s}, Results: sqliteResults{s}}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func (s *SQLiteStore) Ensure(ctx context.Context, session domain.Session) (bool, error) {
	const query = `
		INSERT INTO quiz_sessions (id, language, user_name, client_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.Language,
		session.UserName,
		session.ClientHash,
		toMillis(session.CreatedAt),
		toMillis(session.UpdatedAt),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, language, user_name, client_hash, created_at, updated_at
		FROM quiz_sessions
		WHERE id = ?
	`
	var (
		session          domain.Session
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.Language,
		&session.UserName,
		&session.ClientHash,
		&created,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	session.CreatedAt = fromMillis(created)
	session.UpdatedAt = fromMillis(updated)
	return session, nil
}

func (s *SQLiteStore) Touch(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE quiz_sessions SET updated_at = ? WHERE id = ? AND updated_at < ?`
	_, err := s.db.ExecContext(ctx, query, toMillis(at), id, toMillis(at))
	return err
}

type sqliteAnswers struct{ s *SQLiteStore }

func (a sqliteAnswers) InsertIfAbsent(ctx context.Context, answer domain.Answer) error {
	const query = `
		INSERT INTO quiz_answers (session_id, question_id, option_id, answered_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, question_id) DO NOTHING
	`
	res, err := a.s.db.ExecContext(ctx, query,
		answer.SessionID,
		answer.QuestionID,
		answer.OptionID,
		toMillis(answer.AnsweredAt),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (a sqliteAnswers) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	const query = `
		SELECT session_id, question_id, option_id, answered_at
		FROM quiz_answers
		WHERE session_id = ?
		ORDER BY rowid ASC
	`
	rows, err := a.s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var (
			ans        domain.Answer
			answeredAt int64
		)
		if err := rows.Scan(&ans.SessionID, &ans.QuestionID, &ans.OptionID, &answeredAt); err != nil {
			return nil, err
		}
		ans.AnsweredAt = fromMillis(answeredAt)
		answers = append(answers, ans)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return answers, nil
}

type sqliteResults struct{ s *SQLiteStore }

func (r sqliteResults) InsertIfAbsent(ctx context.Context, result domain.Result) (domain.Result, bool, error) {
	cols, err := encodeResultJSON(result)
	if err != nil {
		return domain.Result{}, false, err
	}
	const query = `
		INSERT INTO quiz_results (
			session_id, candidate_id, subtype, labels, traits,
			kanji, reading, meaning, explanation, catalog_version, generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO NOTHING
	`
	res, err := r.s.db.ExecContext(ctx, query,
		result.SessionID,
		result.CandidateID,
		result.Subtype,
		cols[0],
		cols[1],
		result.Kanji,
		result.Reading,
		cols[2],
		cols[3],
		result.CatalogVersion,
		toMillis(result.GeneratedAt),
	)
	if err != nil {
		return domain.Result{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Result{}, false, err
	}
	if n == 1 {
		return result, true, nil
	}
	stored, err := r.GetBySessionID(ctx, result.SessionID)
	if err != nil {
		return domain.Result{}, false, err
	}
	return stored, false, nil
}

func (r sqliteResults) GetBySessionID(ctx context.Context, sessionID string) (domain.Result, error) {
	const query = `
		SELECT session_id, candidate_id, subtype, labels, traits,
			kanji, reading, meaning, explanation, catalog_version, generated_at
		FROM quiz_results
		WHERE session_id = ?
	`
	var (
		res                                  domain.Result
		labels, traits, meaning, explanation string
		generatedAt                          int64
	)
	err := r.s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&res.SessionID,
		&res.CandidateID,
		&res.Subtype,
		&labels,
		&traits,
		&res.Kanji,
		&res.Reading,
		&meaning,
		&explanation,
		&res.CatalogVersion,
		&generatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Result{}, ErrNotFound
	}
	if err != nil {
		return domain.Result{}, err
	}
	targets := []struct {
		raw string
		dst any
	}{
		{labels, &res.Labels},
		{traits, &res.Traits},
		{meaning, &res.Meaning},
		{explanation, &res.Explanation},
	}
	for _, t := range targets {
		if err := json.Unmarshal([]byte(t.raw), t.dst); err != nil {
			return domain.Result{}, fmt.Errorf("decode result %s: %w", sessionID, err)
		}
	}
	res.GeneratedAt = fromMillis(generatedAt)
	return res, nil
}

// encodeResultJSON serializa labels, traits, meaning y explanation en ese orden.
func encodeResultJSON(result domain.Result) ([4]string, error) {
	var out [4]string
	for i, v := range []any{result.Labels, result.Traits, result.Meaning, result.Explanation} {
		raw, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("encode result %s: %w", result.SessionID, err)
		}
		out[i] = string(raw)
	}
	return out, nil
}
