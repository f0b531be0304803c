package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/claimwise/platform/pkg/adjudication"
	"github.com/claimwise/platform/pkg/cache"
	"github.com/claimwise/platform/pkg/claims"
	"github.com/claimwise/platform/pkg/common/config"
	"github.com/claimwise/platform/pkg/common/database"
	"github.com/claimwise/platform/pkg/common/kafka"
	"github.com/claimwise/platform/pkg/common/logger"
	"github.com/claimwise/platform/pkg/dlp"
	"github.com/claimwise/platform/pkg/document"
	"github.com/claimwise/platform/pkg/extraction"
	"github.com/claimwise/platform/pkg/gateway/auth"
	"github.com/claimwise/platform/pkg/gateway/middleware"
	"github.com/claimwise/platform/pkg/observability/metrics"
	"github.com/claimwise/platform/pkg/policy"
	"github.com/claimwise/platform/pkg/storage"
	"github.com/claimwise/platform/pkg/terminology"
)

func main() {
	logger.Init()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("Database unavailable")
	}
	defer database.ClosePostgres()

	claimRepo := claims.NewRepository(db)
	policyRepo := policy.NewRepository(db)
	for _, migrate := range []func() error{policyRepo.AutoMigrate, claimRepo.AutoMigrate} {
		if err := migrate(); err != nil {
			logger.Log.WithError(err).Fatal("Migration failed")
		}
	}

	filePolicy, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		logger.Log.WithError(err).WithField("path", cfg.PolicyPath).Fatal("Failed to load policy")
	}
	activePolicy, err := policy.Sync(ctx, policyRepo, filePolicy)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to reconcile policy")
	}

	catalog, err := terminology.Load(cfg.TerminologyPath)
	if err != nil {
		logger.Log.WithError(err).Warn("Terminology catalog unreadable, using built-in categories")
		catalog = terminology.DefaultCatalog()
	}

	rules, err := dlp.LoadRules(cfg.DLPRulesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("DLP rules unreadable, using built-in rules")
		rules = dlp.DefaultRules()
	}
	redactor, err := dlp.NewDetector(rules)
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid DLP rules")
	}

	redisClient := database.GetRedis()
	defer database.CloseRedis()
	utilizationCache := claims.NewCachedUtilization(claimRepo, cache.New(redisClient, "claims:", cfg.CacheTTL))

	llm, err := extraction.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMTimeout, cfg.LLMRetries)
	if err != nil {
		logger.Log.WithError(err).Fatal("LLM client unavailable")
	}
	extractor := extraction.NewExtractor(llm, cache.New(redisClient, "claims:", 24*time.Hour))
	reader := document.NewReader(document.NewTesseractOCR(cfg.OCRLanguage, cfg.TessdataPrefix, 2))

	engine := adjudication.NewEngine(activePolicy, catalog, adjudication.Dependencies{
		Members:     claimRepo,
		Utilization: utilizationCache,
		Reviewer:    extractor,
		Matcher:     extractor,
	})

	opts := claims.Options{
		Store:       claimRepo,
		Policies:    policyRepo,
		Reader:      reader,
		Extractor:   extractor,
		Engine:      engine,
		Validator:   claims.NewValidator(cfg.AllowedExtensionSet()),
		Redactor:    redactor,
		Utilization: utilizationCache,
	}
	wireAWS(ctx, cfg, &opts)

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.ClaimsTopic)
	defer producer.Close()
	opts.Publisher = producer
	if cfg.ClaimsDLQTopic != "" {
		dlq := kafka.NewProducer(cfg.KafkaBrokers, cfg.ClaimsDLQTopic)
		defer dlq.Close()
		opts.DeadLetter = dlq
	}

	service := claims.NewService(opts)

	var guard func(http.Handler) http.Handler
	if cfg.JWTSecret != "" {
		tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
		if err != nil {
			logger.Log.WithError(err).Fatal("Invalid JWT configuration")
		}
		guard = middleware.Authenticate(tokens)
	} else {
		logger.Log.Warn("JWT_SECRET not set, claim history endpoints are unauthenticated")
	}

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.CORS)
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	router.Use(middleware.BodyLimit(cfg.MaxUploadBytes))
	router.NotFoundHandler = http.HandlerFunc(claims.NotFound)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	claims.NewHTTPHandler(service, cfg.UploadFolder, cfg.MaxUploadBytes, guard).
		Register(router.PathPrefix("/api").Subrouter())

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"addr":      server.Addr,
			"policy_id": activePolicy.PolicyID,
		}).Info("Claims Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Claims Service...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Claims Service stopped")
}

// wireAWS attaches the S3 archive and SQS review queue when their names are
// configured. Failures leave the no-op defaults in place.
func wireAWS(ctx context.Context, cfg *config.Config, opts *claims.Options) {
	if cfg.DocumentBucket == "" && cfg.ReviewQueueName == "" {
		return
	}
	s3Client, sqsClient, err := storage.NewAWSClients(ctx)
	if err != nil {
		logger.Log.WithError(err).Warn("AWS unavailable, documents stay local")
		return
	}
	if cfg.DocumentBucket != "" {
		opts.Archive = storage.NewS3Archive(s3Client, cfg.DocumentBucket)
	}
	if cfg.ReviewQueueName != "" {
		queueURL, err := storage.QueueURL(ctx, sqsClient, cfg.ReviewQueueName)
		if err != nil {
			logger.Log.WithError(err).WithField("queue", cfg.ReviewQueueName).Warn("Review queue unavailable")
			return
		}
		opts.Review = storage.NewSQSReviewQueue(sqsClient, queueURL)
	}
}
