package logging

import (
	"embed"

	"github.com/caseweave/caseweave/modules/logging/handlers"
	"github.com/caseweave/caseweave/modules/logging/infrastructure/persistence"
	"github.com/caseweave/caseweave/modules/logging/presentation/controllers"
	"github.com/caseweave/caseweave/modules/logging/services"
	"github.com/caseweave/caseweave/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&MigrationFiles)

	app.RegisterServices(
		services.NewLogsService(
			persistence.NewActionLogRepository(),
			persistence.NewAuditTrailRepository(),
		),
		services.NewAuditService(persistence.NewAuditTrailRepository(), app.DB()),
	)
	app.RegisterControllers(
		controllers.NewLogsAPIController(app),
	)
	app.RegisterMiddleware(handlers.ActionLogMiddleware(app))
	return nil
}

func (m *Module) Name() string {
	return "logging"
}
