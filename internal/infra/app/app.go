package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/shopfront/internal/core/port"
	"github.com/arklim/shopfront/internal/infra/config"
	"github.com/arklim/shopfront/internal/infra/database"
	kafkainfra "github.com/arklim/shopfront/internal/infra/kafka"
	"github.com/arklim/shopfront/internal/infra/logger"
	redisinfra "github.com/arklim/shopfront/internal/infra/redis"
	"github.com/arklim/shopfront/internal/infra/security"
	memoryrepo "github.com/arklim/shopfront/internal/repository/memory"
	postgresrepo "github.com/arklim/shopfront/internal/repository/postgres"
	redisrepo "github.com/arklim/shopfront/internal/repository/redis"
	"github.com/arklim/shopfront/internal/transport/http/middleware"
	"github.com/arklim/shopfront/internal/transport/http/routes"
	"github.com/arklim/shopfront/internal/usecase"
)

// Application owns the wired object graph and the process lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	kafka    *kafkainfra.Producer
	captchas port.CaptchaStore
}

// New builds the application from configuration. Construction fails fast on
// misconfiguration, including a missing token signing secret.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	hasher, err := security.NewHasher(security.HasherConfig{
		Algorithm:  cfg.Hasher.Algorithm,
		Iterations: cfg.Hasher.Iterations,
		KeyLength:  cfg.Hasher.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("init hasher: %w", err)
	}

	codec, err := security.NewTokenCodec(security.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	var redisClient *redisinfra.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
	}

	captchaStore := newCaptchaStore(cfg, redisClient, log)
	rateLimitStore := newRateLimitStore(cfg, redisClient)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	var kafkaProducer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	users := postgresrepo.NewUserRepository(pool)

	providers := []port.AuthProvider{
		usecase.NewTokenProvider(codec),
		usecase.NewPasswordProvider(users, hasher),
	}

	authService := usecase.NewAuthService(providers, users, captchaStore, codec, eventPublisher)
	userService := usecase.NewUserService(users, hasher, eventPublisher)
	captchaService := usecase.NewCaptchaService(captchaStore, cfg.Captcha.TTL)

	var cache routes.CacheChecker
	if redisClient != nil {
		cache = redisClient
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Database:    pool,
		Cache:       cache,
		Services: routes.ServiceSet{
			Auth:     authService,
			Users:    userService,
			Captchas: captchaService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		kafka:    kafkaProducer,
		captchas: captchaStore,
	}, nil
}

// newCaptchaStore selects the challenge backend. Redis keeps challenges
// shared across replicas; the in-memory store runs its own expiry sweeper.
func newCaptchaStore(cfg *config.AppConfig, redisClient *redisinfra.Client, log *zap.Logger) port.CaptchaStore {
	if cfg.Captcha.Backend == "redis" {
		if redisClient != nil {
			return redisrepo.NewCaptchaStore(redisClient.Client(), "")
		}
		log.Warn("captcha backend set to redis but redis is disabled, falling back to memory")
	}
	return memoryrepo.NewCaptchaStore(cfg.Captcha.SweepInterval)
}

func newRateLimitStore(cfg *config.AppConfig, redisClient *redisinfra.Client) port.RateLimitStore {
	if redisClient != nil {
		ttl := cfg.RateLimit.WindowDuration * 2
		if ttl <= 0 {
			ttl = 2 * time.Minute
		}
		return redisrepo.NewRateLimitStore(redisClient.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: "shop:rate-limit",
			TTL:       ttl,
		})
	}
	return memoryrepo.NewRateLimitStore()
}

// Run serves HTTP until the context is cancelled or the server fails, then
// shuts down and releases resources in reverse construction order.
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
		if a.kafka != nil {
			_ = a.kafka.Close()
		}
	}()
	defer func() {
		if a.captchas != nil {
			_ = a.captchas.Close()
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

	a.logger.Info("starting storefront API",
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
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
