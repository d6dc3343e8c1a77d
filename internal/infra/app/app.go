package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/infra/config"
	"github.com/aldergrove/cms-auth/internal/infra/database"
	kafkainfra "github.com/aldergrove/cms-auth/internal/infra/kafka"
	"github.com/aldergrove/cms-auth/internal/infra/logger"
	"github.com/aldergrove/cms-auth/internal/infra/mail"
	redisinfra "github.com/aldergrove/cms-auth/internal/infra/redis"
	postgresrepo "github.com/aldergrove/cms-auth/internal/repository/postgres"
	redisrepo "github.com/aldergrove/cms-auth/internal/repository/redis"
	"github.com/aldergrove/cms-auth/internal/transport/http/middleware"
	"github.com/aldergrove/cms-auth/internal/transport/http/routes"
	"github.com/aldergrove/cms-auth/internal/transport/http/session"
	"github.com/aldergrove/cms-auth/internal/usecase"
)

// Application bundles the wired service with its infrastructure handles.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New wires configuration into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var mailer port.CodeMailer
	if cfg.Mail.ResendAPIKey != "" {
		mailer = mail.NewResendMailer(cfg.Mail, log)
	} else {
		log.Info("resend api key not configured, logging codes instead")
		mailer = mail.NewLogMailer(log)
	}

	// Stale challenges stay readable past their lifetime so the flow can
	// report expiry; twice the lifetime is long enough for that.
	twoFactorRetain := cfg.TwoFactor.CodeTTL * 2
	twoFactorStore := redisrepo.NewTwoFactorRepository(redisClient.Client(), cfg.Redis.TwoFactorPrefix, twoFactorRetain)

	sessionRepo := redisrepo.NewSessionRepository(redisClient.Client(), cfg.Redis.SessionPrefix, cfg.Session.TTL)
	sessionStore := session.NewStore(sessionRepo, cfg.Session, log)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	resolver := usecase.NewKeyResolver(repos.Domains, repos.Keys)
	validator := usecase.NewTokenValidator(cfg, resolver, repos.Domains, repos.Tokens, log)
	guard := usecase.NewLoginGuard(cfg, repos.Persons, repos.Logins, eventPublisher, log)
	twoFactor := usecase.NewTwoFactorService(cfg, repos.Persons, twoFactorStore, mailer, guard, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Sessions:    sessionStore,
		Events:      eventPublisher,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Validator: validator,
			Guard:     guard,
			TwoFactor: twoFactor,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	return nil
}
