package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sparkmatch/backend/internal/config"
	s3infra "github.com/sparkmatch/backend/internal/infra/s3"
	pgrepo "github.com/sparkmatch/backend/internal/repo/postgres"
	redrepo "github.com/sparkmatch/backend/internal/repo/redis"
	authsvc "github.com/sparkmatch/backend/internal/services/auth"
	convsvc "github.com/sparkmatch/backend/internal/services/conversations"
	matchessvc "github.com/sparkmatch/backend/internal/services/matches"
	mediasvc "github.com/sparkmatch/backend/internal/services/media"
	messagessvc "github.com/sparkmatch/backend/internal/services/messages"
	ratesvc "github.com/sparkmatch/backend/internal/services/rate"
	swipesvc "github.com/sparkmatch/backend/internal/services/swipes"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	txManager := pgrepo.NewTxManager(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	blockRepo := pgrepo.NewBlockRepo(pool)
	reportRepo := pgrepo.NewReportRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}
	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, cfg.Auth.RefreshTTL)

	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Limits.RatePerMinute, cfg.Limits.RatePer10Sec)

	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Tx:          txManager,
		SwipeStore:  swipeRepo,
		MatchStore:  matchRepo,
		RateLimiter: rateLimiter,
	})
	matchesService := matchessvc.NewService(matchessvc.Dependencies{
		Tx:          txManager,
		MatchStore:  matchRepo,
		BlockStore:  blockRepo,
		ReportStore: reportRepo,
		Photos:      mediaStorage,
	})
	messageService := messagessvc.NewService(messagessvc.Dependencies{
		Tx:           txManager,
		MatchStore:   matchRepo,
		MessageStore: messageRepo,
		RateLimiter:  rateLimiter,
		Attachments:  mediaStorage,
	})
	conversationService := convsvc.NewService(convsvc.Dependencies{
		MatchStore: matchRepo,
		Photos:     mediaStorage,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:         authService,
		SwipeService:        swipeService,
		MatchService:        matchesService,
		MessageService:      messageService,
		ConversationService: conversationService,
		Logger:              log,
		Config:              cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
