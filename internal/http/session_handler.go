package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanji-quiz/internal/service"
)

// SessionHandler expone el flujo del cuestionario de una sesion.
type SessionHandler struct {
	logger     *zap.Logger
	sessions   *service.SessionService
	answers    *service.AnswerService
	generation *service.GenerationService
	delivery   *service.DeliveryService
}

// NewSessionHandler crea una instancia de SessionHandler con dependencias necesarias.
func NewSessionHandler(
	logger *zap.Logger,
	sessions *service.SessionService,
	answers *service.AnswerService,
	generation *service.GenerationService,
	delivery *service.DeliveryService,
) *SessionHandler {
	return &SessionHandler{
		logger:     logger,
		sessions:   sessions,
		answers:    answers,
		generation: generation,
		delivery:   delivery,
	}
}

// StartSession maneja POST /sessions.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req struct {
		Language string `json:"language"`
		UserName string `json:"user_name" binding:"max=100"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, h.logger, "start session", err)
			return
		}
	}

	out, err := h.sessions.StartSession(c.Request.Context(), service.StartSessionInput{
		Language:   req.Language,
		UserName:   req.UserName,
		ClientAddr: c.ClientIP(),
	})
	if err != nil {
		writeError(c, h.logger, "start session", err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// GetSession maneja GET /sessions/:session_id.
func (h *SessionHandler) GetSession(c *gin.Context) {
	summary, err := h.sessions.GetSession(c.Request.Context(), c.Param("session_id"), c.Query("lang"))
	if err != nil {
		writeError(c, h.logger, "get session", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// NextQuestion maneja GET /sessions/:session_id/next-question.
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	step, err := h.sessions.NextQuestion(c.Request.Context(), c.Param("session_id"), c.Query("lang"))
	if err != nil {
		writeError(c, h.logger, "next question", err)
		return
	}
	c.JSON(http.StatusOK, step)
}

// SubmitAnswer maneja POST /sessions/:session_id/answers.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req struct {
		QuestionID string `json:"question_id" binding:"required"`
		OptionID   string `json:"option_id" binding:"required"`
		Language   string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "submit answer", err)
		return
	}
	lang := req.Language
	if q := c.Query("lang"); q != "" {
		lang = q
	}

	out, err := h.answers.SubmitAnswerAndGetNext(c.Request.Context(), service.SubmitAnswerInput{
		SessionID:  c.Param("session_id"),
		QuestionID: req.QuestionID,
		OptionID:   req.OptionID,
		Language:   lang,
	})
	if err != nil {
		writeError(c, h.logger, "submit answer", err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// Generate maneja POST /sessions/:session_id/generate.
func (h *SessionHandler) Generate(c *gin.Context) {
	result, err := h.generation.GenerateKanjiName(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, h.logger, "generate", err)
		return
	}
	localized, err := h.generation.LocalizeForSession(c.Request.Context(), result, c.Query("lang"))
	if err != nil {
		writeError(c, h.logger, "generate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": localized})
}

// GetResult maneja GET /sessions/:session_id/result.
func (h *SessionHandler) GetResult(c *gin.Context) {
	result, err := h.generation.GetResult(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, h.logger, "get result", err)
		return
	}
	localized, err := h.generation.LocalizeForSession(c.Request.Context(), result, c.Query("lang"))
	if err != nil {
		writeError(c, h.logger, "get result", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": localized})
}

// DeliverResult maneja POST /sessions/:session_id/email.
func (h *SessionHandler) DeliverResult(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "deliver result", err)
		return
	}

	localized, err := h.delivery.DeliverResult(c.Request.Context(), c.Param("session_id"), req.Email, req.Language)
	if err != nil {
		writeError(c, h.logger, "deliver result", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent", "result": localized})
}
