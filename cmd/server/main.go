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

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/alert"
	"github.com/Loquest/Mentl2/internal/api"
	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/config"
	"github.com/Loquest/Mentl2/internal/notify"
	"github.com/Loquest/Mentl2/internal/service"
	"github.com/Loquest/Mentl2/internal/storage"
	"github.com/Loquest/Mentl2/internal/triage"
)

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	repos, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to open storage: %v", err)
	}

	var email notify.EmailSender
	if cfg.SendGridAPIKey != "" {
		email = notify.NewSendGridClient(cfg.SendGridBaseURL, cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	} else {
		logger.Warnf("SENDGRID_API_KEY not set, crisis emails will only be logged")
		email = notify.NewLogEmailSender(logger)
	}

	var push notify.PushSender
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnw("redis unreachable, push intents may fail", "addr", cfg.RedisAddr, "error", err)
		}
		push = notify.NewStreamPublisher(rdb, cfg.PushStream)
	} else {
		logger.Warnf("REDIS_ADDR not set, push notifications disabled")
	}

	llm, err := service.NewLLM(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
	if err != nil {
		logger.Fatalf("failed to init language model: %v", err)
	}
	var completer service.Completer
	if llm != nil {
		completer = llm
	} else {
		logger.Warnf("LLM_API_KEY not set, chat replies are unavailable and suggestions use defaults")
	}

	tiers, err := triage.LoadTiers(cfg.CrisisKeywordsFile)
	if err != nil {
		logger.Fatalf("failed to load crisis keywords: %v", err)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warnf("JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}
	jwtProvider, err := auth.NewJWTProvider(secret, cfg.JWTTTL(), repos.Users, logger)
	if err != nil {
		logger.Fatalf("failed to init auth: %v", err)
	}
	var provider auth.Provider = jwtProvider
	if cfg.DevToken != "" {
		logger.Warnf("DEV_TOKEN set, the development token signs in as the demo user")
		provider = auth.NewLocalAuthProvider(cfg.DevToken, repos.Users, jwtProvider, logger)
	}

	analyticsSvc := service.NewAnalyticsService(repos.MoodLogs, cfg.AnalyticsMaxRecords)
	notifySvc := service.NewNotificationService(repos.Users, repos.Notifications, logger)
	dispatcher := alert.NewDispatcher(repos.Caregivers, notifySvc, repos.Notifications, email, push, cfg.AlertConcurrency, logger)
	classifier := triage.NewClassifier(tiers)

	contentSvc := service.NewContentService(repos.Content, logger)
	if cfg.SeedContent {
		library, err := service.LoadLibrary(cfg.ContentFile)
		if err != nil {
			logger.Fatalf("failed to load content library: %v", err)
		}
		if err := contentSvc.Seed(ctx, library); err != nil {
			logger.Fatalf("failed to seed content library: %v", err)
		}
	}

	app := &api.Application{
		Log:          logger,
		Cfg:          cfg,
		Provider:     provider,
		Repos:        repos,
		AuthSvc:      service.NewAuthService(repos.Users, jwtProvider, logger),
		AnalyticsSvc: analyticsSvc,
		ChatSvc:      service.NewChatService(repos.MoodLogs, repos.Chats, classifier, dispatcher, completer, logger),
		CaregiverSvc: service.NewCaregiverService(repos.Users, repos.Caregivers, repos.Notifications, repos.MoodLogs, analyticsSvc, logger),
		NotifySvc:    notifySvc,
		DietarySvc:   service.NewDietaryService(repos.Users, repos.MoodLogs, completer, logger),
		ContentSvc:   contentSvc,
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.NewRouter(app),
	}

	go func() {
		logger.Infow("server starting", "port", cfg.ServerPort, "env", cfg.Env, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("server forced to shutdown", "error", err)
	}
	if err := repos.Close(shutdownCtx); err != nil {
		logger.Errorw("failed to close storage", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	logger.Infof("server exited")
}
