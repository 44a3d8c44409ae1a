package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/messaging"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/observability"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
)

func TestInitializeContainer_MemoryStore(t *testing.T) {
	// Arrange
	cfg := config.Defaults()
	cfg.AuthMode = config.AuthTrustedHeader

	// Act
	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	// Assert
	assert.IsType(t, &observability.InstrumentedStore{}, container.Store)
	assert.NotNil(t, container.Router)

	rec := httptest.NewRecorder()
	container.Router.Setup().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProvideLogLevel(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "debug"

	level, err := ProvideLogLevel(cfg)
	require.NoError(t, err)
	assert.Equal(t, "debug", level.String())

	cfg.LogLevel = "loud"
	_, err = ProvideLogLevel(cfg)
	assert.Error(t, err)
}

func TestProvideLogger_InstallsGlobalLogger(t *testing.T) {
	previous := zap.L()
	defer zap.ReplaceGlobals(previous)

	cfg := config.Defaults()
	level, err := ProvideLogLevel(cfg)
	require.NoError(t, err)

	logger, err := ProvideLogger(cfg, level)

	require.NoError(t, err)
	assert.Same(t, logger, zap.L())
}

func TestProvideDocumentStore_RedisCache(t *testing.T) {
	// Arrange
	mr := miniredis.RunT(t)
	cfg := config.Defaults()
	cfg.Cache.Provider = "redis"
	cfg.Cache.RedisAddr = mr.Addr()

	store, cleanup, err := ProvideDocumentStore(cfg, aws.Config{}, nil, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	ctx := context.Background()

	// Act
	require.NoError(t, store.Set(ctx, "users/u1/workspaces/w1", persistence.Document{"name": "A"}))
	_, err = store.Get(ctx, "users/u1/workspaces/w1")
	require.NoError(t, err)

	// Assert
	assert.NotEmpty(t, mr.Keys())
}

func TestProvideDocumentStore_UnknownBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.StoreBackend = "sqlite"

	_, _, err := ProvideDocumentStore(cfg, aws.Config{}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestProvideEventPublisher(t *testing.T) {
	cfg := config.Defaults()

	assert.IsType(t, &messaging.LogPublisher{}, ProvideEventPublisher(cfg, aws.Config{}, zap.NewNop()))

	cfg.EventBusName = "workspace-events"
	assert.IsType(t, &messaging.EventBridgePublisher{}, ProvideEventPublisher(cfg, aws.Config{Region: "us-west-2"}, zap.NewNop()))
}

func TestProvideJWTValidator(t *testing.T) {
	cfg := config.Defaults()
	cfg.AuthMode = config.AuthTrustedHeader

	v, err := ProvideJWTValidator(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, v)

	cfg.AuthMode = config.AuthJWT
	v, err = ProvideJWTValidator(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, v)
}
