package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"kanji-quiz/internal/domain"
	"kanji-quiz/internal/repository"
	"kanji-quiz/internal/scoring"
)

// GenerationService calcula y persiste el resultado de una sesion exactamente una vez.
type GenerationService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	answers  repository.AnswerRepository
	results  repository.ResultRepository
	engine   *scoring.Engine
	cache    ResultCache
	group    singleflight.Group
	tracer   trace.Tracer
	now      func() time.Time
}

func NewGenerationService(
	logger *zap.Logger,
	stores repository.Stores,
	engine *scoring.Engine,
	cache ResultCache,
) *GenerationService {
	return &GenerationService{
		logger:   logger,
		sessions: stores.Sessions,
		answers:  stores.Answers,
		results:  stores.Results,
		engine:   engine,
		cache:    cache,
		tracer:   otel.Tracer("kanji-quiz/service"),
		now:      time.Now,
	}
}

// GenerateKanjiName devuelve el resultado almacenado o lo genera si la sesion
// esta completa. Llamadas concurrentes en el proceso comparten una sola ejecucion.
func (s *GenerationService) GenerateKanjiName(ctx context.Context, sessionID string) (domain.Result, error) {
	id, err := ParseSessionID(sessionID)
	if err != nil {
		return domain.Result{}, err
	}
	v, err, shared := s.group.Do(id, func() (interface{}, error) {
		// la ejecucion compartida no depende de la cancelacion del primer llamador
		return s.generate(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return domain.Result{}, err
	}
	if shared {
		s.logger.Debug("generation shared", zap.String("session_id", id))
	}
	return v.(domain.Result), nil
}

func (s *GenerationService) generate(ctx context.Context, id string) (domain.Result, error) {
	ctx, span := s.tracer.Start(ctx, "GenerationService.generate",
		trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	result, err := s.generateOnce(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
		return domain.Result{}, err
	}
	span.SetAttributes(
		attribute.String("result.subtype", result.Subtype),
		attribute.String("result.candidate", result.CandidateID),
	)
	return result, nil
}

func (s *GenerationService) generateOnce(ctx context.Context, id string) (domain.Result, error) {
	stored, err := s.results.GetBySessionID(ctx, id)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Result{}, fmt.Errorf("get result %s: %w", id, err)
	}

	// una sesion inexistente equivale a una sin respuestas
	answers, err := s.answers.ListBySessionID(ctx, id)
	if err != nil {
		return domain.Result{}, fmt.Errorf("list answers %s: %w", id, err)
	}

	outcome, err := s.engine.Score(answers)
	if err != nil {
		if domain.KindOf(err) == domain.KindCatalogInconsistent {
			s.logger.Error("catalog cannot resolve answers", zap.Error(err), zap.String("session_id", id))
		}
		return domain.Result{}, err
	}

	result := s.engine.Result(id, outcome, s.now())
	stored, inserted, err := s.results.InsertIfAbsent(ctx, result)
	if err != nil {
		return domain.Result{}, fmt.Errorf("insert result %s: %w", id, err)
	}
	if inserted {
		s.logger.Info("result generated",
			zap.String("session_id", id),
			zap.String("subtype", stored.Subtype),
			zap.String("candidate_id", stored.CandidateID),
		)
	} else {
		s.logger.Info("result already stored by another writer", zap.String("session_id", id))
	}
	if s.cache != nil {
		s.cache.Set(ctx, stored)
	}
	return stored, nil
}

// GetResult lee el resultado almacenado; nunca lo genera.
func (s *GenerationService) GetResult(ctx context.Context, sessionID string) (domain.Result, error) {
	id, err := ParseSessionID(sessionID)
	if err != nil {
		return domain.Result{}, err
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, id); ok {
			return cached, nil
		}
	}
	result, err := s.results.GetBySessionID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Result{}, domain.Errorf(domain.KindResultNotFound, "no result for session %s", id)
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("get result %s: %w", id, err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, result)
	}
	return result, nil
}

// Localize resuelve el resultado en un idioma con la politica de fallback del catalogo.
func (s *GenerationService) Localize(result domain.Result, lang string) domain.LocalizedResult {
	return s.engine.Catalog().LocalizeResult(result, lang)
}

// LocalizeForSession es Localize con lang vacio resuelto al idioma de la sesion.
func (s *GenerationService) LocalizeForSession(ctx context.Context, result domain.Result, lang string) (domain.LocalizedResult, error) {
	lang, err := sessionLanguage(ctx, s.sessions, result.SessionID, lang)
	if err != nil {
		return domain.LocalizedResult{}, err
	}
	return s.Localize(result, lang), nil
}
