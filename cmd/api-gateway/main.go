package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lakgs-api/api/swagger"
	"github.com/noah-isme/lakgs-api/internal/content"
	"github.com/noah-isme/lakgs-api/internal/handler"
	"github.com/noah-isme/lakgs-api/internal/llm"
	internalmiddleware "github.com/noah-isme/lakgs-api/internal/middleware"
	"github.com/noah-isme/lakgs-api/internal/repository"
	"github.com/noah-isme/lakgs-api/internal/service"
	"github.com/noah-isme/lakgs-api/pkg/cache"
	"github.com/noah-isme/lakgs-api/pkg/config"
	"github.com/noah-isme/lakgs-api/pkg/export"
	"github.com/noah-isme/lakgs-api/pkg/graphdb"
	"github.com/noah-isme/lakgs-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lakgs-api/pkg/middleware/cors"
	ratelimitmiddleware "github.com/noah-isme/lakgs-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/lakgs-api/pkg/middleware/requestid"
	"github.com/noah-isme/lakgs-api/pkg/storage"
	"github.com/noah-isme/lakgs-api/pkg/tracing"
)

const (
	shutdownTimeout       = 15 * time.Second
	reportCleanupInterval = time.Hour
	classroomModule       = "课中互动"
)

// @title LAKGS API
// @version 1.0.0
// @description Learning activity and knowledge-graph service for history classrooms
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Init(ctx, cfg, logr)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("otel shutdown failed", zap.Error(err))
		}
	}()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()

	graph, err := graphdb.Open(ctx, graphdb.Config{
		URI:            cfg.Graph.URI,
		User:           cfg.Graph.User,
		Password:       cfg.Graph.Password,
		Database:       cfg.Graph.Database,
		LabelPrefix:    cfg.Graph.LabelPrefix,
		MaxPoolSize:    cfg.Graph.MaxPoolSize,
		ConnectTimeout: cfg.Graph.ConnectTimeout,
		QueryTimeout:   cfg.Graph.QueryTimeout,
	}, logr, graphdb.WithObserver(metricsSvc))
	if err != nil {
		logr.Warn("graph store offline, serving content pages only", zap.Error(err))
	}
	defer func() {
		if err := graph.Close(context.Background()); err != nil {
			logr.Warn("graph store close failed", zap.Error(err))
		}
	}()

	contentRepo := content.Load(cfg.Content.Dir, logr)
	topics, err := content.LoadTopics(cfg.Content.TopicsFile)
	if err != nil {
		logr.Fatal("failed to load topic table", zap.Error(err))
	}

	var redisClient *redis.Client
	if cache.Enabled(cfg.Redis) {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, falling back to in-memory sessions", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}
	var sessions repository.SessionStore
	if redisClient != nil {
		sessions = repository.NewRedisSessionStore(redisClient)
	} else {
		memSessions := repository.NewMemorySessionStore()
		go memSessions.Run(ctx, time.Minute)
		sessions = memSessions
	}
	var explainCache *service.ExplanationCache
	if redisClient != nil {
		explainCache = service.NewExplanationCache(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Explain.CacheTTL, logr)
	}

	activityRepo := repository.NewActivityRepository(graph)
	analyticsRepo := repository.NewAnalyticsRepository(graph)
	classroomRepo := repository.NewClassroomRepository(graph)

	llmClient := llm.NewClient(llm.Config{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.Model,
		Timeout:      cfg.LLM.Timeout,
		MaxAttempts:  cfg.LLM.MaxAttempts,
		MaxTokens:    cfg.LLM.MaxTokens,
		RateLimitRPS: cfg.LLM.RateLimitRPS,
	}, logr, llm.WithObserver(metricsSvc))
	if !llmClient.Configured() {
		logr.Warn("LLM endpoint not configured, AI features will degrade")
	}
	mediator := llm.NewMediator(llmClient, logr)

	validate := service.NewValidator()
	recorder := service.NewActivityRecorder(activityRepo, metricsSvc, logr, cfg.Activity.QueueBuffer)
	// Runs until Stop so requests finishing during shutdown are still logged.
	recorder.Start(context.WithoutCancel(ctx))

	authSvc, err := service.NewAuthService(activityRepo, sessions, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		SessionTTL:        cfg.Session.TTL,
		Issuer:            cfg.JWT.Issuer,
		TeacherUsername:   cfg.Teacher.Username,
		TeacherPassword:   cfg.Teacher.Password,
	})
	if err != nil {
		logr.Fatal("failed to init auth service", zap.Error(err))
	}

	learningSvc := service.NewLearningService(contentRepo, recorder, activityRepo, validate, logr)
	knowledgeSvc := service.NewKnowledgeService(contentRepo, topics, content.TopicLimits{}, validate, logr)
	questionSvc := service.NewQuestionService(mediator, knowledgeSvc, explainCache, recorder, validate, logr)
	essaySvc := service.NewEssayService(mediator, sessions, recorder, validate, logr)
	classroomSvc := service.NewClassroomService(classroomRepo, mediator, recorder, classroomModule, validate, logr)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, activityRepo, cfg.Content.ModuleTags, logr)
	dataSvc := service.NewDataManagementService(activityRepo, export.NewCSVExporter(export.WithBOM(), export.WithFormulaGuard()), export.NewPDFExporter(cfg.Reports.FontPath), logr)

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	signingSecret := cfg.Reports.SignedURLSecret
	if signingSecret == "" {
		signingSecret = cfg.JWT.Secret
	}
	reportSvc := service.NewReportService(analyticsSvc, contentRepo, knowledgeSvc, mediator, reportStore,
		storage.NewSignedURLSigner(signingSecret, cfg.Reports.SignedURLTTL), validate, logr,
		service.ReportServiceConfig{
			DownloadPath:    path.Join(cfg.APIPrefix, "reports/download"),
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: reportCleanupInterval,
		})
	reportSvc.StartCleanup(ctx)

	limiter := ratelimitmiddleware.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Run(ctx)

	r := gin.New()
	r.Use(logger.GinRecovery(logr, "/"))
	r.Use(reqidmiddleware.Middleware())
	r.Use(otelgin.Middleware("lakgs-api"))
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, graph, contentRepo)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, limiter.Middleware())
	handler.RegisterRoutes(api, handler.RouterConfig{
		Sessions:  authSvc,
		Logger:    logr,
		Auth:      handler.NewAuthHandler(authSvc),
		Learning:  handler.NewLearningHandler(learningSvc),
		Knowledge: handler.NewKnowledgeHandler(knowledgeSvc),
		AI:        handler.NewAIHandler(questionSvc, essaySvc),
		Classroom: handler.NewClassroomHandler(classroomSvc),
		Analytics: handler.NewAnalyticsHandler(analyticsSvc, metricsSvc),
		Reports:   handler.NewReportHandler(reportSvc),
		Data:      handler.NewDataHandler(dataSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "graph_store", graph.Available())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown failed", zap.Error(err))
	}
	logr.Info("draining activity log", zap.Int("pending", recorder.Pending()))
	recorder.Stop()
}
