package core

import (
	"embed"

	"github.com/caseweave/caseweave/modules/core/infrastructure/persistence"
	"github.com/caseweave/caseweave/modules/core/presentation/controllers"
	"github.com/caseweave/caseweave/modules/core/services"
	"github.com/caseweave/caseweave/pkg/application"
)

//go:embed presentation/locales/*.json
var LocaleFiles embed.FS

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterLocaleFiles(&LocaleFiles)

	userRepo := persistence.NewUserRepository()
	tenantRepo := persistence.NewTenantRepository()

	app.RegisterServices(
		services.NewTenantService(tenantRepo),
		services.NewUserService(userRepo, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewHealthController(app),
		controllers.NewUserAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "core"
}
