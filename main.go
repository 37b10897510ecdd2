package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SujaySAK777/StreamIQ/broadcast"
	"github.com/SujaySAK777/StreamIQ/controllers"
	"github.com/SujaySAK777/StreamIQ/database"
	"github.com/SujaySAK777/StreamIQ/kafka"
	applogger "github.com/SujaySAK777/StreamIQ/logger"
	"github.com/SujaySAK777/StreamIQ/middleware"
	"github.com/SujaySAK777/StreamIQ/models"
	aws_pkg "github.com/SujaySAK777/StreamIQ/pkg/aws"
	"github.com/SujaySAK777/StreamIQ/repository"
	"github.com/SujaySAK777/StreamIQ/routes"
	"github.com/SujaySAK777/StreamIQ/services"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const serviceName = "promotion-agent"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig(ctx)
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	// --- AWS setup (LocalStack-compatible, non-fatal) ---
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)

	var cwWriter io.Writer
	if cfg.CloudWatchEnabled && awsErr == nil {
		cwLogs, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName, cfg.CloudWatchLogGroup, true)
		if err != nil {
			log.Printf("CloudWatch Logs init failed (non-fatal): %v", err)
		} else {
			cwWriter = cwLogs
		}
	}

	logger, err := applogger.New(cfg.Env, cwWriter)
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer logger.Sync()

	if awsErr != nil {
		logger.Warn("AWS config load failed, AWS integrations disabled (non-fatal)", zap.Error(awsErr))
	}

	// --- Stores ---
	var (
		db          *gorm.DB
		productRepo repository.ProductRepository
		recorder    services.DecisionRecorder
		decisions   services.DecisionQuery
	)
	if cfg.Postgres.Configured() {
		migrate := []interface{}{}
		if cfg.DecisionStore == StorePostgres {
			migrate = append(migrate, &models.PromotionDecision{})
		}
		db, err = database.ConnectPostgres(cfg.Postgres, logger, 5, migrate...)
		if err != nil {
			logger.Warn("Postgres unavailable, running without partner lookups (non-fatal)", zap.Error(err))
		} else {
			productRepo = repository.NewGormProductRepository(db)
			if cfg.DecisionStore == StorePostgres {
				repo := repository.NewGormDecisionRepository(db)
				recorder, decisions = repo, repo
			}
		}
	}
	if cfg.DecisionStore == StoreDynamoDB && awsErr == nil {
		repo := repository.NewDynamoDecisionRepository(dynamodb.NewFromConfig(awsCfg), cfg.DecisionDynamoTable)
		recorder, decisions = repo, repo
	}
	if recorder == nil {
		logger.Warn("Decision store not configured, decisions will not be persisted")
	}

	// --- Redis (partner cache + exposure relay) ---
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("Failed to parse REDIS_URL, Redis disabled", zap.Error(err))
		} else {
			rdb = redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				logger.Warn("Redis ping failed, continuing; calls will fall back", zap.Error(err))
			}
			cancel()
		}
	}

	var partners services.PartnerLookup
	if productRepo != nil {
		partners = productRepo
		if rdb != nil {
			partners = repository.NewCachedProductRepository(productRepo, rdb, cfg.PartnerCacheTTL, logger)
		}
	}

	// --- Exposure sinks ---
	hub := broadcast.NewHub(logger)
	var sinks []services.ExposureSink
	if rdb != nil {
		relay := broadcast.NewRedisRelay(rdb, hub, logger)
		sinks = append(sinks, relay)
		go relay.Run(ctx)
	} else {
		sinks = append(sinks, hub)
	}
	if cfg.PromotionSNSTopicARN != "" && awsErr == nil {
		sinks = append(sinks, services.NewSNSPromotionMirror(aws_pkg.NewSNSClient(awsCfg), cfg.PromotionSNSTopicARN, logger))
	}

	// --- CloudWatch metrics (non-fatal) ---
	metricsClient := aws_pkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled && awsErr == nil)
	var agentMetrics services.MetricsRecorder
	if metricsClient.IsEnabled() {
		agentMetrics = metricsClient
	}

	// --- Engine ---
	producer := kafka.NewDecisionProducer(cfg.KafkaBrokers, kafka.Topics{
		Exposure:     cfg.ExposureTopic,
		Explanations: cfg.ExplanationsTopic,
		Review:       cfg.ReviewQueueTopic,
	}, logger)

	presenter := services.NewRemoteCopyPresenter(
		services.NewTemplatePresenter(uint64(time.Now().UnixNano())),
		cfg.CopyAPIKey, cfg.CopyAPIURL, logger,
	)

	agent := services.NewPromotionAgent(cfg.Engine(), services.AgentDeps{
		Publisher:   producer,
		Recorder:    recorder,
		Sinks:       sinks,
		Partners:    partners,
		Presenter:   presenter,
		Exploration: services.NewRandomExploration(),
		Metrics:     agentMetrics,
		Logger:      logger,
	})
	dispatcher := services.NewDispatcher(agent, cfg.MaxInFlight, logger)
	if metricsClient.IsEnabled() {
		go services.ExportCounters(ctx, agent.Counters(), metricsClient, time.Minute, logger)
	}

	// --- Ingest ---
	if cfg.ingestsFrom(IngestKafka) {
		consumer := kafka.NewProductEventConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.IngestTopics(), dispatcher, logger)
		go consumer.Run(ctx)
	}
	if cfg.ingestsFrom(IngestSQS) && awsErr == nil {
		sqsConsumer := aws_pkg.NewSQSConsumer(awsCfg, cfg.ProductEventsQueueURL, logger)
		go func() {
			if err := sqsConsumer.StartPolling(ctx, sqsEventHandler(dispatcher, logger)); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("SQS consumer stopped", zap.Error(err))
			}
		}()
	}

	// --- HTTP router ---
	gin.SetMode(ginMode(cfg.Env))
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(applogger.RequestLogger(logger))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))

	promotionService := services.NewPromotionService(agent, decisions, logger)
	routes.RegisterPromotionRoutes(r,
		controllers.NewPromotionController(promotionService),
		controllers.NewStreamController(hub),
		middleware.NewRateLimiter(rate.Limit(5), 10),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "OK",
			"service":     serviceName,
			"store":       recorder != nil,
			"subscribers": hub.Subscribers(),
		})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Promotion Agent started",
			zap.String("port", cfg.Port),
			zap.String("ingest", cfg.IngestSource),
			zap.String("store", cfg.DecisionStore),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	logger.Info("Initiating graceful shutdown...")

	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if !dispatcher.Drain(15 * time.Second) {
		logger.Warn("Shutdown continuing with decisions still in flight")
	}
	if err := producer.Close(); err != nil {
		logger.Error("Kafka producer close error", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}

	snap := agent.Counters().Snapshot()
	logger.Info("Promotion Agent stopped gracefully",
		zap.Int64("processed", snap.Processed),
		zap.Float64("skip_rate", snap.SkipRate),
	)
}

// sqsEventHandler decodes SQS product events and hands them to the
// dispatcher. Malformed bodies are logged and acknowledged.
func sqsEventHandler(dispatcher kafka.EventDispatcher, logger *zap.Logger) aws_pkg.MessageHandler {
	return func(ctx context.Context, body string) error {
		var raw models.RawProductEvent
		if err := json.Unmarshal([]byte(body), &raw); err != nil {
			logger.Warn("Skipping malformed SQS product event", zap.Error(err))
			return nil
		}
		if !dispatcher.Dispatch(ctx, raw) {
			logger.Debug("SQS product event filtered", zap.Any("product_id", raw["product_id"]))
		}
		return nil
	}
}

func ginMode(env string) string {
	if env == "production" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}
