package services

import (
	"github.com/ghuser/foundly/pkg/app"
	"github.com/ghuser/foundly/pkg/cache"
	"github.com/ghuser/foundly/services/report/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Report *ReportService
}

// New wires all report application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	reports := postgres.NewReportRepository(a.Db)
	items := postgres.NewItemRepository(a.Db)
	listCache := cache.NewReportListCache(a.Redis)
	return &Services{
		Report: NewReportService(reports, items, a.Storage, listCache, a.Db, a.EventBus, a.Logger),
	}
}
