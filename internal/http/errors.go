package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanji-quiz/internal/domain"
)

// statusFor traduce un Kind de dominio a codigo HTTP.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindQuestionNotFound, domain.KindResultNotFound, domain.KindSessionNotFound:
		return http.StatusNotFound
	case domain.KindAlreadyAnswered:
		return http.StatusConflict
	case domain.KindInsufficientAnswers:
		return http.StatusUnprocessableEntity
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError responde {"error": {"code", "message"}}. Los errores internos
// se registran y se devuelven con un mensaje generico.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	message := domain.MessageOf(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err), zap.String("code", string(kind)))
		message = "internal error"
		if kind != domain.KindCatalogInconsistent {
			kind = domain.KindInternal
		}
	} else {
		logger.Warn(op+" rejected", zap.String("code", string(kind)), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": kind, "message": message}})
}

func badRequest(c *gin.Context, logger *zap.Logger, op string, err error) {
	writeError(c, logger, op, domain.Wrap(domain.KindInvalidRequest, "invalid request body", err))
}
