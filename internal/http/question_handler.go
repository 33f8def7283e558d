package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanji-quiz/internal/service"
)

// QuestionHandler expone el catalogo de preguntas.
type QuestionHandler struct {
	logger *zap.Logger
	flow   *service.FlowService
}

func NewQuestionHandler(logger *zap.Logger, flow *service.FlowService) *QuestionHandler {
	return &QuestionHandler{logger: logger, flow: flow}
}

// GetQuestion maneja GET /questions/:question_id.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	q, err := h.flow.GetQuestion(c.Param("question_id"), c.Query("lang"))
	if err != nil {
		writeError(c, h.logger, "get question", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": q})
}

// Healthz maneja GET /healthz.
func (h *QuestionHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"catalog_version": h.flow.Catalog().Version(),
	})
}
