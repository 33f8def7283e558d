package repository

import (
	"context"
	"errors"
	"time"

	"kanji-quiz/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// SessionRepository define el contrato de persistencia para sesiones.
type SessionRepository interface {
	// Ensure crea la sesion si no existe; devuelve true si la creo.
	Ensure(ctx context.Context, session domain.Session) (bool, error)
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
}

// AnswerRepository garantiza a lo sumo una respuesta por (sesion, pregunta).
type AnswerRepository interface {
	// InsertIfAbsent devuelve ErrAlreadyExists si la pregunta ya tenia respuesta.
	InsertIfAbsent(ctx context.Context, answer domain.Answer) error
	ListBySessionID(ctx context.Context, sessionID string) ([]domain.Answer, error)
}

// ResultRepository garantiza a lo sumo un resultado por sesion.
type ResultRepository interface {
	// InsertIfAbsent devuelve el resultado almacenado y si esta llamada lo inserto.
	InsertIfAbsent(ctx context.Context, result domain.Result) (domain.Result, bool, error)
	GetBySessionID(ctx context.Context, sessionID string) (domain.Result, error)
}

// Stores agrupa los repositorios de un mismo backend.
type Stores struct {
	Sessions SessionRepository
	Answers  AnswerRepository
	Results  ResultRepository
}
