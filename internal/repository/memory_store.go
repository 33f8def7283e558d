package repository

import (
	"context"
	"maps"
	"sync"
	"time"

	"kanji-quiz/internal/domain"
)

// MemoryStore implementa los tres repositorios en memoria. Un solo mutex
// cubre las comprobaciones de unicidad.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	answers  map[string][]domain.Answer
	results  map[string]domain.Result
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]domain.Session),
		answers:  make(map[string][]domain.Answer),
		results:  make(map[string]domain.Result),
	}
}

// Stores expone el MemoryStore como conjunto de repositorios.
func (s *MemoryStore) Stores() Stores {
	return Stores{Sessions: s, Answers: memoryAnswers{s}, Results: memoryResults{s}}
}

func (s *MemoryStore) Ensure(ctx context.Context, session domain.Session) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return false, nil
	}
	s.sessions[session.ID] = session
	return true, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, ErrNotFound
	}
	return session, nil
}

func (s *MemoryStore) Touch(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || !session.UpdatedAt.Before(at) {
		return nil
	}
	session.UpdatedAt = at
	s.sessions[id] = session
	return nil
}

func (s *MemoryStore) insertAnswer(ctx context.Context, answer domain.Answer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.answers[answer.SessionID] {
		if existing.QuestionID == answer.QuestionID {
			return ErrAlreadyExists
		}
	}
	s.answers[answer.SessionID] = append(s.answers[answer.SessionID], answer)
	return nil
}

func (s *MemoryStore) listAnswers(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Answer(nil), s.answers[sessionID]...), nil
}

func (s *MemoryStore) insertResult(ctx context.Context, result domain.Result) (domain.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.results[result.SessionID]; ok {
		return cloneResult(stored), false, nil
	}
	s.results[result.SessionID] = cloneResult(result)
	return cloneResult(result), true, nil
}

func (s *MemoryStore) getResult(ctx context.Context, sessionID string) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[sessionID]
	if !ok {
		return domain.Result{}, ErrNotFound
	}
	return cloneResult(result), nil
}

// cloneResult copia los mapas para que el Result guardado no se comparta.
func cloneResult(r domain.Result) domain.Result {
	r.Labels = maps.Clone(r.Labels)
	r.Traits = maps.Clone(r.Traits)
	r.Meaning = maps.Clone(r.Meaning)
	r.Explanation = maps.Clone(r.Explanation)
	return r
}

type memoryAnswers struct{ s *MemoryStore }

func (m memoryAnswers) InsertIfAbsent(ctx context.Context, answer domain.Answer) error {
	return m.s.insertAnswer(ctx, answer)
}

func (m memoryAnswers) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	return m.s.listAnswers(ctx, sessionID)
}

type memoryResults struct{ s *MemoryStore }

func (m memoryResults) InsertIfAbsent(ctx context.Context, result domain.Result) (domain.Result, bool, error) {
	return m.s.insertResult(ctx, result)
}

func (m memoryResults) GetBySessionID(ctx context.Context, sessionID string) (domain.Result, error) {
	return m.s.getResult(ctx, sessionID)
}
