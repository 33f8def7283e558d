package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"kanji-quiz/internal/domain"
	"kanji-quiz/internal/email"
	"kanji-quiz/internal/repository"
)

// DeliveryService envia el nombre generado por correo.
type DeliveryService struct {
	logger     *zap.Logger
	sessions   repository.SessionRepository
	generation *GenerationService
	sender     email.Sender
}

func NewDeliveryService(
	logger *zap.Logger,
	stores repository.Stores,
	generation *GenerationService,
	sender email.Sender,
) *DeliveryService {
	return &DeliveryService{
		logger:     logger,
		sessions:   stores.Sessions,
		generation: generation,
		sender:     sender,
	}
}

// DeliverResult genera (si hace falta) y envia el resultado localizado.
func (s *DeliveryService) DeliverResult(ctx context.Context, sessionID, address, lang string) (domain.LocalizedResult, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(address))
	if err != nil {
		return domain.LocalizedResult{}, domain.Errorf(domain.KindInvalidRequest, "invalid email address %q", address)
	}
	result, err := s.generation.GenerateKanjiName(ctx, sessionID)
	if err != nil {
		return domain.LocalizedResult{}, err
	}
	session, err := s.sessions.GetByID(ctx, result.SessionID)
	if err != nil {
		return domain.LocalizedResult{}, fmt.Errorf("get session %s: %w", result.SessionID, err)
	}
	if lang == "" {
		lang = session.Language
	}
	localized := s.generation.Localize(result, lang)

	msg := email.ResultMessage{
		To:          addr.Address,
		UserName:    session.UserName,
		Kanji:       localized.Kanji,
		Reading:     localized.Reading,
		Meaning:     localized.Meaning,
		Explanation: localized.Explanation,
		Language:    localized.Language,
	}
	if err := s.sender.SendResult(ctx, msg); err != nil {
		s.logger.Error("result delivery failed", zap.Error(err), zap.String("session_id", result.SessionID))
		return domain.LocalizedResult{}, fmt.Errorf("send result %s: %w", result.SessionID, err)
	}
	s.logger.Info("result delivered", zap.String("session_id", result.SessionID), zap.String("language", localized.Language))
	return localized, nil
}
