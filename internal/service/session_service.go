package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"kanji-quiz/internal/domain"
	"kanji-quiz/internal/repository"
)

// SessionService crea sesiones y arma su resumen de estado.
type SessionService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	answers  repository.AnswerRepository
	results  repository.ResultRepository
	flow     *FlowService
	tokens   *SessionTokenService
	now      func() time.Time
}

func NewSessionService(
	logger *zap.Logger,
	stores repository.Stores,
	flow *FlowService,
	tokens *SessionTokenService,
) *SessionService {
	return &SessionService{
		logger:   logger,
		sessions: stores.Sessions,
		answers:  stores.Answers,
		results:  stores.Results,
		flow:     flow,
		tokens:   tokens,
		now:      time.Now,
	}
}

type StartSessionInput struct {
	Language   string
	UserName   string
	ClientAddr string
}

type StartSessionOutput struct {
	Session        domain.Session  `json:"session"`
	Next           domain.FlowStep `json:"next"`
	Token          string          `json:"token,omitempty"`
	TokenExpiresAt *time.Time      `json:"token_expires_at,omitempty"`
}

// ParseSessionID valida y normaliza un id de sesion (UUID).
func ParseSessionID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.Errorf(domain.KindInvalidRequest, "invalid session id %q", raw)
	}
	return id.String(), nil
}

// hashClientAddr evita guardar la IP en claro.
func hashClientAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:])
}

// StartSession crea una sesion nueva y devuelve la primera pregunta.
func (s *SessionService) StartSession(ctx context.Context, in StartSessionInput) (StartSessionOutput, error) {
	lang, _ := s.flow.Catalog().ResolveLanguage(in.Language)
	now := s.now().UTC().Truncate(time.Millisecond)
	session := domain.Session{
		ID:         uuid.NewString(),
		Language:   lang,
		UserName:   strings.TrimSpace(in.UserName),
		ClientHash: hashClientAddr(in.ClientAddr),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.sessions.Ensure(ctx, session); err != nil {
		return StartSessionOutput{}, fmt.Errorf("create session: %w", err)
	}

	out := StartSessionOutput{
		Session: session,
		Next:    s.flow.NextQuestion(nil, in.Language),
	}
	if s.tokens.Enabled() {
		token, expiresAt, err := s.tokens.Issue(session.ID)
		if err != nil {
			return StartSessionOutput{}, fmt.Errorf("issue session token: %w", err)
		}
		out.Token = token
		out.TokenExpiresAt = &expiresAt
	}
	s.logger.Info("session started", zap.String("session_id", session.ID), zap.String("language", lang))
	return out, nil
}

// GetSession devuelve la sesion con respuestas, estado derivado y siguiente paso.
func (s *SessionService) GetSession(ctx context.Context, sessionID, lang string) (domain.SessionSummary, error) {
	id, err := ParseSessionID(sessionID)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	session, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.SessionSummary{}, domain.Errorf(domain.KindSessionNotFound, "session %s not found", id)
	}
	if err != nil {
		return domain.SessionSummary{}, fmt.Errorf("get session %s: %w", id, err)
	}
	answers, err := s.answers.ListBySessionID(ctx, id)
	if err != nil {
		return domain.SessionSummary{}, fmt.Errorf("list answers %s: %w", id, err)
	}

	var result *domain.Result
	stored, err := s.results.GetBySessionID(ctx, id)
	switch {
	case err == nil:
		result = &stored
	case !errors.Is(err, repository.ErrNotFound):
		return domain.SessionSummary{}, fmt.Errorf("get result %s: %w", id, err)
	}

	if lang == "" {
		lang = session.Language
	}
	complete := s.flow.IsComplete(answers)
	next := s.flow.NextQuestion(answers, lang)
	if answers == nil {
		answers = []domain.Answer{}
	}
	return domain.SessionSummary{
		Session:  session,
		Answers:  answers,
		Answered: len(answers),
		Total:    s.flow.TotalSteps(),
		Complete: complete,
		State:    domain.StateOf(complete, result),
		Result:   result,
		NextStep: &next,
	}, nil
}

// NextQuestion calcula la siguiente pregunta de una sesion. Una sesion aun no
// creada equivale a una sin respuestas.
func (s *SessionService) NextQuestion(ctx context.Context, sessionID, lang string) (domain.FlowStep, error) {
	id, err := ParseSessionID(sessionID)
	if err != nil {
		return domain.FlowStep{}, err
	}
	lang, err = sessionLanguage(ctx, s.sessions, id, lang)
	if err != nil {
		return domain.FlowStep{}, err
	}
	answers, err := s.answers.ListBySessionID(ctx, id)
	if err != nil {
		return domain.FlowStep{}, fmt.Errorf("list answers %s: %w", id, err)
	}
	return s.flow.NextQuestion(answers, lang), nil
}

// sessionLanguage resuelve un lang vacio al idioma de la sesion. Sin sesion
// queda vacio y el catalogo usa su idioma por defecto.
func sessionLanguage(ctx context.Context, sessions repository.SessionRepository, id, lang string) (string, error) {
	if lang != "" {
		return lang, nil
	}
	session, err := sessions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get session %s: %w", id, err)
	}
	return session.Language, nil
}
