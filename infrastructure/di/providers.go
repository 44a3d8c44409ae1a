package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BOHARRY/courtDataAPI-sub002/application/ports"
	"github.com/BOHARRY/courtDataAPI-sub002/application/services"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/messaging"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/observability"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence/repositories"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/auth"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
)

// metricsNamespace prefixes every Prometheus series
const metricsNamespace = "workspace"

// developmentJWTSecret signs tokens when no secret is configured outside production.
const developmentJWTSecret = "development-secret-change-in-production"

// ProvideLogLevel parses the configured level into an adjustable one
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	// packages without an injected logger, such as timestamp normalization,
	// write through zap.L()
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDocumentStore builds the store stack: the backend, then retries and
// the circuit breaker for DynamoDB, the optional Redis cache, and metrics
// outermost so they see what callers see.
func ProvideDocumentStore(
	cfg *config.Config,
	awsCfg aws.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) (persistence.DocumentStore, func(), error) {
	var store persistence.DocumentStore
	cleanup := func() {}

	switch cfg.StoreBackend {
	case config.StoreDynamoDB:
		client := awsdynamodb.NewFromConfig(awsCfg)
		store = persistence.NewDynamoDBStore(client, persistence.DynamoDBConfig{
			TableName:      cfg.DynamoDBTable,
			ConsistentRead: cfg.ConsistentRead,
		}, logger)

		retry := persistence.DefaultRetryConfig()
		retry.MaxRetries = cfg.Resilience.MaxRetries
		retry.InitialDelay = cfg.Resilience.RetryBaseDelay
		store = persistence.NewRetryStore(store, retry, logger)

		breaker := persistence.DefaultCircuitBreakerConfig()
		breaker.Timeout = cfg.Resilience.BreakerTimeout
		breaker.FailureThreshold = cfg.Resilience.BreakerThreshold
		store = persistence.NewCircuitBreakerStore(store, breaker, logger)

	case config.StoreMemory:
		logger.Warn("Using in-memory document store; data is lost on restart")
		store = persistence.NewMemoryStore(logger)

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.Cache.Provider == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		store = persistence.NewCachingStore(store, persistence.NewRedisCache(client), persistence.CachingConfig{
			TTL:       cfg.Cache.TTL,
			KeyPrefix: cfg.Cache.KeyPrefix,
		}, logger)
		cleanup = func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close redis client", zap.Error(err))
			}
		}
	}

	return observability.NewInstrumentedStore(store, metrics), cleanup, nil
}

// ProvideWorkspaceRepository creates the workspace repository
func ProvideWorkspaceRepository(store persistence.DocumentStore, logger *zap.Logger) ports.WorkspaceRepository {
	return repositories.NewWorkspaceRepository(store, logger)
}

// ProvideCanvasRepository creates the canvas repository
func ProvideCanvasRepository(store persistence.DocumentStore, logger *zap.Logger) ports.CanvasRepository {
	return repositories.NewCanvasRepository(store, logger)
}

// ProvideEventPublisher publishes to EventBridge when a bus is configured and
// to the log otherwise
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return messaging.NewLogPublisher(logger)
	}
	return messaging.NewEventBridgePublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideWorkspaceService creates the workspace registry
func ProvideWorkspaceService(
	repo ports.WorkspaceRepository,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *services.WorkspaceService {
	return services.NewWorkspaceService(repo, publisher, metrics, cfg.Verification, logger)
}

// ProvideCanvasService creates the canvas service
func ProvideCanvasService(
	repo ports.CanvasRepository,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *services.CanvasService {
	return services.NewCanvasService(repo, metrics, cfg.Concurrency, logger)
}

// ProvideRepairService creates the consistency repair service
func ProvideRepairService(
	repo ports.CanvasRepository,
	workspaces *services.WorkspaceService,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *services.RepairService {
	return services.NewRepairService(repo, workspaces, publisher, metrics, cfg.Concurrency, logger)
}

// ProvideJWTValidator creates the token validator. It is nil when an upstream
// gateway authenticates requests.
func ProvideJWTValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	if cfg.AuthMode == config.AuthTrustedHeader {
		return nil, nil
	}

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set; using the development secret")
		secret = developmentJWTSecret
	}

	var audience []string
	if cfg.JWTAudience != "" {
		audience = []string{cfg.JWTAudience}
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		Audience:  audience,
	})
}

// ProvideErrorHandler creates the HTTP error renderer. Stack traces are only
// exposed in development.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.IsDevelopment())
}
