package di

import (
	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/application/services"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/observability"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	"github.com/BOHARRY/courtDataAPI-sub002/interfaces/http/rest"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	LogLevel   zap.AtomicLevel
	Metrics    *observability.Collector
	Store      persistence.DocumentStore
	Workspaces *services.WorkspaceService
	Canvas     *services.CanvasService
	Repair     *services.RepairService
	Router     *rest.Router
}
