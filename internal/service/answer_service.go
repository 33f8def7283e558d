package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kanji-quiz/internal/domain"
	"kanji-quiz/internal/repository"
)

// AnswerService registra respuestas una sola vez y en orden.
type AnswerService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	answers  repository.AnswerRepository
	results  repository.ResultRepository
	flow     *FlowService
	limiter  SubmissionLimiter
	now      func() time.Time
}

func NewAnswerService(
	logger *zap.Logger,
	stores repository.Stores,
	flow *FlowService,
	limiter SubmissionLimiter,
) *AnswerService {
	return &AnswerService{
		logger:   logger,
		sessions: stores.Sessions,
		answers:  stores.Answers,
		results:  stores.Results,
		flow:     flow,
		limiter:  limiter,
		now:      time.Now,
	}
}

type SubmitAnswerInput struct {
	SessionID  string
	QuestionID string
	OptionID   string
	Language   string
}

type SubmitAnswerOutput struct {
	Answer domain.Answer   `json:"answer"`
	Next   domain.FlowStep `json:"next"`
}

// SubmitAnswer valida y registra una respuesta. Devuelve la respuesta creada y
// el conjunto de respuestas de la sesion tras registrarla.
func (s *AnswerService) SubmitAnswer(ctx context.Context, sessionID, questionID, optionID string) (domain.Answer, []domain.Answer, error) {
	id, err := ParseSessionID(sessionID)
	if err != nil {
		return domain.Answer{}, nil, err
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, id) {
		return domain.Answer{}, nil, domain.NewError(domain.KindRateLimited, "too many answers, try again later")
	}
	if err := s.flow.ValidateIdentity(questionID, optionID); err != nil {
		return domain.Answer{}, nil, err
	}

	answers, err := s.answers.ListBySessionID(ctx, id)
	if err != nil {
		return domain.Answer{}, nil, fmt.Errorf("list answers %s: %w", id, err)
	}
	if err := s.flow.ValidateAnswer(answers, questionID, optionID); err != nil {
		return domain.Answer{}, nil, err
	}
	if _, err := s.results.GetBySessionID(ctx, id); err == nil {
		return domain.Answer{}, nil, domain.Errorf(domain.KindInvalidRequest, "session %s already has a result", id)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.Answer{}, nil, fmt.Errorf("get result %s: %w", id, err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	created, err := s.sessions.Ensure(ctx, domain.Session{
		ID:        id,
		Language:  s.flow.Catalog().DefaultLanguage(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Answer{}, nil, fmt.Errorf("ensure session %s: %w", id, err)
	}
	if created {
		s.logger.Info("session created on first answer", zap.String("session_id", id))
	}

	answer := domain.Answer{
		SessionID:  id,
		QuestionID: questionID,
		OptionID:   optionID,
		AnsweredAt: now,
	}
	if err := s.answers.InsertIfAbsent(ctx, answer); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return domain.Answer{}, nil, domain.Errorf(domain.KindAlreadyAnswered, "question %q already answered", questionID)
		}
		return domain.Answer{}, nil, fmt.Errorf("insert answer %s/%s: %w", id, questionID, err)
	}
	if err := s.sessions.Touch(ctx, id, now); err != nil {
		s.logger.Warn("touch session failed", zap.Error(err), zap.String("session_id", id))
	}

	s.logger.Info("answer recorded",
		zap.String("session_id", id),
		zap.String("question_id", questionID),
		zap.String("option_id", optionID),
	)
	return answer, append(answers, answer), nil
}

// SubmitAnswerAndGetNext registra la respuesta y devuelve la siguiente pregunta
// o la señal de finalizacion.
func (s *AnswerService) SubmitAnswerAndGetNext(ctx context.Context, in SubmitAnswerInput) (SubmitAnswerOutput, error) {
	answer, answers, err := s.SubmitAnswer(ctx, in.SessionID, in.QuestionID, in.OptionID)
	if err != nil {
		return SubmitAnswerOutput{}, err
	}
	lang, err := sessionLanguage(ctx, s.sessions, answer.SessionID, in.Language)
	if err != nil {
		return SubmitAnswerOutput{}, err
	}
	return SubmitAnswerOutput{
		Answer: answer,
		Next:   s.flow.NextQuestion(answers, lang),
	}, nil
}
