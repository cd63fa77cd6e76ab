package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lovebox-backend/internal/cache"
	"lovebox-backend/internal/config"
	"lovebox-backend/internal/database"
	"lovebox-backend/internal/handlers"
	"lovebox-backend/internal/middleware"
	"lovebox-backend/internal/permission"
	"lovebox-backend/internal/repository"
	"lovebox-backend/internal/repository/memory"
	"lovebox-backend/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// stores is the storage backend chosen by database.driver
type stores struct {
	users    services.UserStore
	pairs    services.PairStore
	requests services.BffRequestStore
	couple   services.CoupleQuestionStore
	single   services.SingleQuestionStore
	close    func()
}

func Run() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer st.close()

	// Pair cache
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis pair cache enabled")
	}
	pairCache := cache.NewPairCache(rdb, cfg.Redis.PairTTL)

	// Events
	wsHub := services.NewWSHub()
	var pusher services.Pusher
	if cfg.APNS.KeyFile != "" {
		notifier, err := services.NewAPNSNotifier(services.APNSConfig{
			KeyFile:    cfg.APNS.KeyFile,
			KeyID:      cfg.APNS.KeyID,
			TeamID:     cfg.APNS.TeamID,
			Topic:      cfg.APNS.Topic,
			Production: cfg.APNS.Production,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs notifier")
		}
		pusher = notifier
		log.Info().Bool("production", cfg.APNS.Production).Msg("Push notifications enabled")
	}
	events := services.NewDispatcher(wsHub, pusher, st.users)

	// Initialize services
	policy := permission.Policy{
		LegacyAnswerCheck: cfg.Compat.LegacyAnswerCheck,
		LegacyLoveCheck:   cfg.Compat.LegacyLoveCheck,
	}
	if policy.LegacyAnswerCheck {
		log.Warn().Msg("compat.legacy_answer_check is on: answers are accepted from the first answerer or when the path user holds the second slot")
	}
	if policy.LegacyLoveCheck {
		log.Warn().Msg("compat.legacy_love_check is on: any user may love an answered couple question")
	}

	userService := services.NewUserService(st.users, st.pairs, pairCache, services.UserServiceConfig{
		JWTSecret: cfg.JWT.Secret,
		TokenTTL:  cfg.JWT.TTL,
	})
	pairService := services.NewPairService(st.users, st.pairs, st.requests, pairCache, events)
	coupleService := services.NewCoupleQuestionService(st.couple, userService, events, policy)
	singleService := services.NewSingleQuestionService(st.single, userService, events)

	var avatarService *services.AvatarService
	if cfg.AWS.S3Bucket != "" {
		presigner, err := services.NewS3Presigner(ctx, services.S3Config{
			Region:    cfg.AWS.Region,
			Bucket:    cfg.AWS.S3Bucket,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Endpoint:  cfg.AWS.Endpoint,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 presigner")
		}
		avatarService = services.NewAvatarService(st.users, presigner, avatarBaseURL(cfg.AWS))
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("Avatar uploads enabled")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	stopCleanup := make(chan struct{})
	rateLimiter.StartCleanup(5*time.Minute, stopCleanup)
	defer close(stopCleanup)

	// Setup router
	router := handlers.NewRouter(handlers.RouterConfig{
		Users:          userService,
		Pairs:          pairService,
		Couple:         coupleService,
		Single:         singleService,
		Avatars:        avatarService,
		Hub:            wsHub,
		RateLimiter:    rateLimiter,
		RequestLogging: zerolog.GlobalLevel() <= zerolog.DebugLevel,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("driver", cfg.Database.Driver).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown
	wsHub.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openStores connects the configured backend and runs migrations for postgres
func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn().Msg("Using the in-memory store; data is lost on restart")
		db := memory.New()
		return &stores{
			users:    db.Users(),
			pairs:    db.Pairs(),
			requests: db.BffRequests(),
			couple:   db.CoupleQuestions(),
			single:   db.SingleQuestions(),
			close:    func() {},
		}, nil
	}

	if err := database.Migrate(cfg.DSN(), cfg.MigrationsDir); err != nil {
		return nil, err
	}

	pool, err := database.Connect(ctx, cfg.DSN(), database.PoolOptions{
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Database connection established")

	return &stores{
		users:    repository.NewUserRepository(pool),
		pairs:    repository.NewPairRepository(pool),
		requests: repository.NewBffRequestRepository(pool),
		couple:   repository.NewCoupleQuestionRepository(pool),
		single:   repository.NewSingleQuestionRepository(pool),
		close:    pool.Close,
	}, nil
}

// avatarBaseURL is the public URL objects are served from, defaulting to the bucket's virtual-host URL
func avatarBaseURL(cfg config.AWSConfig) string {
	if cfg.PublicBaseURL != "" {
		return cfg.PublicBaseURL
	}
	if cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s", cfg.Endpoint, cfg.S3Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
