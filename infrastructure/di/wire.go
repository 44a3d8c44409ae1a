//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/interfaces/http/rest"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideMetrics,
	ProvideAWSConfig,
	ProvideDocumentStore,
	ProvideWorkspaceRepository,
	ProvideCanvasRepository,
	ProvideEventPublisher,
	ProvideWorkspaceService,
	ProvideCanvasService,
	ProvideRepairService,
	ProvideJWTValidator,
	ProvideErrorHandler,
	rest.NewRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
