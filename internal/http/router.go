package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"kanji-quiz/internal/service"
)

// RouterConfig agrupa handlers y opciones del router.
type RouterConfig struct {
	SessionHandler  *SessionHandler
	QuestionHandler *QuestionHandler
	Tokens          *service.SessionTokenService
	AllowedOrigins  []string
	ServiceName     string
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, tracing y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "Accept-Language"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", cfg.QuestionHandler.Healthz)
	r.GET("/questions/:question_id", cfg.QuestionHandler.GetQuestion)

	r.POST("/sessions", cfg.SessionHandler.StartSession)
	session := r.Group("/sessions/:session_id")
	session.Use(SessionTokenMiddleware(cfg.Tokens))
	session.GET("", cfg.SessionHandler.GetSession)
	session.GET("/next-question", cfg.SessionHandler.NextQuestion)
	session.POST("/answers", cfg.SessionHandler.SubmitAnswer)
	session.POST("/generate", cfg.SessionHandler.Generate)
	session.GET("/result", cfg.SessionHandler.GetResult)
	session.POST("/email", cfg.SessionHandler.DeliverResult)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
