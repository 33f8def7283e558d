package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kanji-quiz/internal/catalog"
	"kanji-quiz/internal/config"
	"kanji-quiz/internal/db"
	"kanji-quiz/internal/email"
	apihttp "kanji-quiz/internal/http"
	"kanji-quiz/internal/repository"
	"kanji-quiz/internal/scoring"
	"kanji-quiz/internal/service"
	"kanji-quiz/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		for _, issue := range catalog.Issues(err) {
			logger.Error("catalog issue", zap.String("issue", issue))
		}
		logger.Fatal("catalog inconsistent", zap.Error(err))
	}
	logger.Info("catalog loaded",
		zap.String("version", cat.Version()),
		zap.Int("questions", len(cat.Questions())),
	)

	shutdownTracing, err := telemetry.Setup(ctx, logger, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelService,
		Version:     cat.Version(),
	})
	if err != nil {
		logger.Warn("otel init failed (continuing)", zap.Error(err))
	}

	stores, closeStores, err := openStores(ctx, cfg, cat, logger)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}
	defer closeStores()

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(email.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUser,
			Password:    cfg.SMTPPass,
			From:        cfg.SMTPFrom,
			FromName:    cfg.SMTPFromName,
			ImplicitTLS: cfg.SMTPUseTLS,
		})
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	limiter := service.NewSubmissionLimiter(cfg.AnswerWindow, cfg.AnswerLimit)
	var resultCache service.ResultCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			limiter = service.NewRedisSubmissionLimiter(redisClient, logger, cfg.AnswerWindow, cfg.AnswerLimit)
			resultCache = service.NewRedisResultCache(redisClient, cfg.ResultCacheTTL, logger)
		}
		cancel()
	}
	if cfg.AnswerLimit == 0 {
		limiter = nil
	}

	tokens := service.NewSessionTokenService(cfg.TokenSecret, cfg.TokenTTL)
	if !tokens.Enabled() {
		logger.Warn("session token secret not configured, session routes are open")
	}

	flow := service.NewFlowService(cat)
	sessionSvc := service.NewSessionService(logger, stores, flow, tokens)
	answerSvc := service.NewAnswerService(logger, stores, flow, limiter)
	generationSvc := service.NewGenerationService(logger, stores, scoring.NewEngine(cat), resultCache)
	deliverySvc := service.NewDeliveryService(logger, stores, generationSvc, emailSender)

	serviceName := ""
	if cfg.OTelEnabled {
		serviceName = cfg.OTelService
	}
	router := apihttp.NewRouter(logger, apihttp.RouterConfig{
		SessionHandler:  apihttp.NewSessionHandler(logger, sessionSvc, answerSvc, generationSvc, deliverySvc),
		QuestionHandler: apihttp.NewQuestionHandler(logger, flow),
		Tokens:          tokens,
		AllowedOrigins:  cfg.AllowedOrigins,
		ServiceName:     serviceName,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
		if shutdownTracing != nil {
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn("otel shutdown", zap.Error(err))
			}
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreDriver))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openStores construye los repositorios segun STORE_DRIVER y aplica migraciones.
func openStores(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, logger *zap.Logger) (repository.Stores, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return repository.Stores{}, nil, err
		}
		if err := db.Ping(ctx, pool); err != nil {
			pool.Close()
			return repository.Stores{}, nil, err
		}
		if cfg.MigrateOnStart {
			if err := db.MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return repository.Stores{}, nil, err
			}
		}
		stores := repository.Stores{
			Sessions: repository.NewPgSessionRepository(pool),
			Answers:  repository.NewPgAnswerRepository(pool),
			Results:  repository.NewPgResultRepository(pool, cat.Dimensions()),
		}
		return stores, pool.Close, nil
	case config.StoreSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return repository.Stores{}, nil, err
		}
		if cfg.MigrateOnStart {
			if err := db.MigrateSQLite(ctx, sqlDB); err != nil {
				_ = sqlDB.Close()
				return repository.Stores{}, nil, err
			}
		}
		return repository.NewSQLiteStore(sqlDB).Stores(), func() { _ = sqlDB.Close() }, nil
	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore().Stores(), func() {}, nil
	}
}
